package gateway

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/morezero/dialect-gateway/pkg/commsutil"
	"github.com/morezero/dialect-gateway/pkg/wrapper"
)

var errBodyTooLarge = errors.New("request body too large")

// decodeItems turns a request into wrapper items. Query strings (GET),
// urlencoded and multipart forms, and JSON bodies are accepted. A JSON array
// body is handed over as a single empty-valued field keyed by the raw body,
// which is how batched Direct requests arrive from form posts.
func decodeItems(w http.ResponseWriter, r *http.Request, maxBody int64) (wrapper.Items, error) {
	if r.Method == http.MethodGet {
		return valuesToItems(r.URL.Query()), nil
	}

	mediaType := ""
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return nil, fmt.Errorf("invalid Content-Type: %w", err)
		}
		mediaType = mt
	}

	switch mediaType {
	case "application/json":
		body, err := readBody(w, r, maxBody)
		if err != nil {
			return nil, err
		}
		trimmed := bytes.TrimSpace(body)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			return wrapper.Items{string(trimmed): ""}, nil
		}
		obj, err := commsutil.DecodeObject(trimmed)
		if err != nil {
			return nil, err
		}
		return wrapper.Items(obj), nil

	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := r.ParseMultipartForm(maxBody); err != nil {
			return nil, bodyError(err)
		}
		return valuesToItems(r.MultipartForm.Value), nil

	default:
		r.Body = http.MaxBytesReader(w, r.Body, maxBody)
		if err := r.ParseForm(); err != nil {
			return nil, bodyError(err)
		}
		return valuesToItems(r.PostForm), nil
	}
}

func readBody(w http.ResponseWriter, r *http.Request, maxBody int64) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBody))
	if err != nil {
		return nil, bodyError(err)
	}
	return body, nil
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return err
}

// valuesToItems keeps single values as strings and repeated keys as lists.
func valuesToItems(values url.Values) wrapper.Items {
	items := make(wrapper.Items, len(values))
	for k, vs := range values {
		switch len(vs) {
		case 0:
			items[k] = ""
		case 1:
			items[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			items[k] = list
		}
	}
	return items
}

// takeDialect removes the _type field from items and returns it.
func takeDialect(items wrapper.Items) string {
	v, ok := items[wrapper.FieldType]
	if !ok {
		return ""
	}
	delete(items, wrapper.FieldType)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
