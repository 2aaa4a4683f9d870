// Package response содержит вспомогательные типы и функции для формирования
// унифицированных JSON‑ответов HTTP‑обработчиков. Все ответы используют
// единый конверт {"success": bool, "message"?: string, ...данные}.
package response

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

// Response описывает стандартную структуру JSON‑ответа сервера.
// Поле Success — признак успеха бизнес-операции.
// Поле Message — текст ошибки или пояснение (опционально).
// Поле Data — дополнительные поля, разворачиваемые на верхний уровень конверта.
type Response struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"-"`
}

// ErrorResponse — структура ошибки для Swagger-документации.
// Используется в аннотациях @Failure как возвращаемый тип ошибки.
type ErrorResponse struct {
	Success bool   `json:"success" example:"false"`
	Message string `json:"message" example:"invalid request body"`
}

// MarshalJSON сериализует ответ, поднимая поля Data на верхний уровень.
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+2)
	for k, v := range r.Data {
		out[k] = v
	}
	out["success"] = r.Success
	if r.Message != "" {
		out["message"] = r.Message
	}
	return json.Marshal(out)
}

// OK возвращает успешный Response без дополнительных данных.
func OK() Response {
	return Response{Success: true}
}

// OKWithMessage возвращает успешный Response с пояснительным сообщением.
func OKWithMessage(msg string) Response {
	return Response{Success: true, Message: msg}
}

// OKWithData возвращает успешный Response с данными верхнего уровня.
func OKWithData(data map[string]any) Response {
	return Response{Success: true, Data: data}
}

// Error возвращает Response с признаком неуспеха и переданным сообщением.
func Error(msg string) Response {
	return Response{Success: false, Message: msg}
}

// ValidationError формирует Response с признаком неуспеха на основе ошибок валидации.
// Каждое нарушение формируется в человеко‑читаемый текст, объединённый через запятую.
func ValidationError(errs validator.ValidationErrors) Response {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "len":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s has invalid length", err.Field()))
		case "numeric":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only numbers", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "min":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too short", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return Response{
		Success: false,
		Message: strings.Join(errsMsgs, ", "),
	}
}
