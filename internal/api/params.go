package api

import (
	"net/http"
	"net/url"

	"norelock.dev/listenify/grabber/internal/utils"
)

// HandlerFunc1 is an http.HandlerFunc that also receives decoded request data.
type HandlerFunc1[T any] func(w http.ResponseWriter, r *http.Request, data T)

// QueryParser decodes query values into T.
type QueryParser[T any] func(values url.Values) (T, error)

// WithQuery decodes the query string before calling handler. A parse error
// is answered with its mapped status and public message.
func WithQuery[T any](parse QueryParser[T], handler HandlerFunc1[T]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := parse(r.URL.Query())
		if err != nil {
			utils.RespondWithAppError(w, err)
			return
		}
		handler(w, r, data)
	}
}

// Infallible adapts a parser that cannot fail.
func Infallible[T any](parse func(url.Values) T) QueryParser[T] {
	return func(values url.Values) (T, error) {
		return parse(values), nil
	}
}
