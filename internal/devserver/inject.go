package devserver

import (
	"bytes"
	"net/http"
	"path"
	"strings"
)

const (
	scriptTag     = `<script async src="/livereload.js"></script>`
	maxInjectSize = 1 << 20
)

// InjectScript adds the live reload client to HTML responses just before
// </body>. Large or non-HTML responses pass through untouched.
func InjectScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		ext := path.Ext(p)
		if ext != "" && ext != ".html" {
			next.ServeHTTP(w, r)
			return
		}
		iw := &injector{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(iw, r)
		iw.finish()
	})
}

type injector struct {
	http.ResponseWriter
	status      int
	buf         bytes.Buffer
	passthrough bool
	wroteHeader bool
	decided     bool
}

func (i *injector) WriteHeader(code int) {
	i.status = code
	if i.passthrough {
		i.commitHeader()
	}
}

func (i *injector) commitHeader() {
	if i.wroteHeader {
		return
	}
	i.wroteHeader = true
	i.ResponseWriter.WriteHeader(i.status)
}

func (i *injector) Write(p []byte) (int, error) {
	if !i.decided {
		i.decided = true
		ct := i.Header().Get("Content-Type")
		if ct != "" && !strings.Contains(ct, "text/html") {
			i.passthrough = true
		}
	}
	if !i.passthrough && i.buf.Len()+len(p) > maxInjectSize {
		i.passthrough = true
		i.Header().Del("Content-Length")
		i.commitHeader()
		if _, err := i.ResponseWriter.Write(i.buf.Bytes()); err != nil {
			return 0, err
		}
		i.buf.Reset()
	}
	if i.passthrough {
		i.commitHeader()
		return i.ResponseWriter.Write(p)
	}
	return i.buf.Write(p)
}

func (i *injector) finish() {
	if i.passthrough {
		i.commitHeader()
		return
	}
	body := i.buf.Bytes()
	if idx := bytes.LastIndex(body, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(body)+len(scriptTag))
		out = append(out, body[:idx]...)
		out = append(out, scriptTag...)
		out = append(out, body[idx:]...)
		body = out
	}
	i.Header().Del("Content-Length")
	i.commitHeader()
	_, _ = i.ResponseWriter.Write(body)
}
