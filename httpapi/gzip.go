package httpapi

import (
	"net/http"
	"strings"

	"github.com/YaCodeDev/GoCacheService/yagzip"
	"github.com/gin-gonic/gin"
)

// gzipWriter buffers the handler's output so it can be compressed as a
// whole with yagzip instead of streamed chunk-by-chunk, matching
// yagzip.Zip's in-memory round-trip contract.
type gzipWriter struct {
	gin.ResponseWriter
	buf []byte
}

func (w *gzipWriter) Write(data []byte) (int, error) {
	w.buf = append(w.buf, data...)

	return len(data), nil
}

func (w *gzipWriter) WriteString(s string) (int, error) {
	w.buf = append(w.buf, s...)

	return len(s), nil
}

// gzipResponses compresses any response body of at least minBytes, on
// every route, with yagzip when the client advertises gzip support,
// trading CPU for bandwidth the way a reverse proxy normally would —
// done here so the cache service behaves correctly even unproxied.
func gzipResponses(gz *yagzip.Gzip, minBytes int) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
			c.Next()

			return
		}

		writer := &gzipWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		if len(writer.buf) < minBytes {
			writer.ResponseWriter.Write(writer.buf) //nolint:errcheck

			return
		}

		zipped, err := gz.Zip(writer.buf)
		if err != nil {
			writer.ResponseWriter.Write(writer.buf) //nolint:errcheck

			return
		}

		writer.ResponseWriter.Header().Set("Content-Encoding", "gzip")
		writer.ResponseWriter.Header().Set("Content-Length", "")
		writer.ResponseWriter.WriteHeader(http.StatusOK)
		writer.ResponseWriter.Write(zipped) //nolint:errcheck
	}
}
