package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"
)

const maxBodySize = 1 << 20

/* Поля можно прислать как JSON, так и формой: читаем оба варианта в одну плоскую мапу строк */
func readFields(w http.ResponseWriter, req *http.Request) (map[string]string, error) {
	req.Body = http.MaxBytesReader(w, req.Body, maxBodySize)
	mediaType, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var body interface{}
		err := json.NewDecoder(req.Body).Decode(&body)
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		if err != nil {
			return nil, err
		}
		/* null, массив или скаляр считаем запросом без полей: пусть ответит валидация */
		raw, _ := body.(map[string]interface{})
		fields := make(map[string]string, len(raw))
		for key, value := range raw {
			switch v := value.(type) {
			case nil:
			case string:
				fields[key] = v
			case float64, bool:
				fields[key] = fmt.Sprint(v)
			}
		}
		return fields, nil
	}

	if err := req.ParseForm(); err != nil {
		return nil, err
	}
	fields := make(map[string]string, len(req.Form))
	for key := range req.Form {
		fields[key] = req.Form.Get(key)
	}
	return fields, nil
}

func (service *AuthService) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	result, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		service.logger.Error("JSON failure", zap.Error(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(result)
}

func (service *AuthService) writeUnauthorised(w http.ResponseWriter) {
	service.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorised"})
}

func (service *AuthService) writeInternalError(w http.ResponseWriter) {
	service.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Server Error"})
}
