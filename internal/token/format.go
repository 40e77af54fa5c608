package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"
	"strings"

	"github.com/kataras/jwt"
)

const idLength = 32

/* Токен: base64url(id) + "." + base64url(HS512(id)).
 * В токене нет никаких данных о пользователе, подпись нужна только чтобы
 * отбрасывать мусор и подделки без похода в базу. */
func encode(secret, id []byte) (string, error) {
	tag, err := jwt.HS512.Sign(secret, id)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(id) + "." + base64.RawURLEncoding.EncodeToString(tag), nil
}

func decode(secret []byte, token string) ([]byte, error) {
	idPart, tagPart, ok := strings.Cut(token, ".")
	if !ok || idPart == "" || tagPart == "" {
		return nil, ErrMalformed
	}
	id, err := base64.RawURLEncoding.DecodeString(idPart)
	if err != nil || len(id) != idLength {
		return nil, ErrMalformed
	}
	tag, err := base64.RawURLEncoding.DecodeString(tagPart)
	if err != nil {
		return nil, ErrMalformed
	}
	if err = jwt.HS512.Verify(secret, id, tag); err != nil {
		return nil, ErrMalformed
	}
	return id, nil
}

/* В хранилище попадает только хэш идентификатора */
func storageKey(id []byte) string {
	sum := sha256.Sum256(id)
	return hex.EncodeToString(sum[:])
}

func randomBytes(n int) ([]byte, error) {
	bytes := make([]byte, n)
	_, err := io.ReadFull(rand.Reader, bytes)
	return bytes, err
}
