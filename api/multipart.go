package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
)

type formField struct {
	name, value string
}

type formFile struct {
	field, path string
}

// multipartPayload buffers a form with the given fields and files so that it
// can be replayed after a token refresh.
func multipartPayload(fields []formField, files []formFile) (*payload, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", f.name, err)
		}
	}
	for _, f := range files {
		if err := writeFile(w, f); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}
	return &payload{body: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func writeFile(w *multipart.Writer, f formFile) error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(f.path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, filepath.Base(f.path)))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create part for %s: %w", f.path, err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	return nil
}

// sortedFields turns a map into fields in key order.
func sortedFields(m map[string]string) []formField {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]formField, 0, len(keys))
	for _, k := range keys {
		if m[k] == "" {
			continue
		}
		out = append(out, formField{name: k, value: m[k]})
	}
	return out
}
