package server

import (
	"net/http"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// WrapH2C: HTTP/2 Cleartext 지원을 위해 핸들러를 래핑한다.
// Iris 웹훅과 상태 API가 TLS 종단 없이도 HTTP/2 멀티플렉싱을 쓸 수 있다.
func WrapH2C(handler http.Handler) http.Handler {
	return h2c.NewHandler(handler, &http2.Server{})
}
