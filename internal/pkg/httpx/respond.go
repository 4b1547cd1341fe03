// internal/pkg/httpx/respond.go
package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON 输出 JSON 响应。所有接口的响应都禁用缓存。
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// WriteError 输出统一格式的错误体 {"error": "..."}。
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
