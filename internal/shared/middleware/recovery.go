package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/internal/shared/response"
)

// Recovery chặn panic trong handler, trả SYS_001 thay vì làm rơi kết nối.
// Nếu handler đã ghi header thì chỉ log, không ghi thêm body.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			// client đã đóng kết nối, ghi response cũng vô ích
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			log.Error().
				Str("request_id", c.GetString("request_id")).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Interface("user_id", c.Value(ContextUserID)).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("handler panic")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			response.ErrorResponse(c, http.StatusInternalServerError, "SYS_001", "Internal server error")
			c.Abort()
		}()

		c.Next()
	}
}
