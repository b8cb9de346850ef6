package object

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Object is a file handed to a store. FileName only contributes its extension
// to the generated key; the original name is kept as metadata where supported.
type Object struct {
	Namespace   string
	FileName    string
	ContentType string
	Body        io.Reader
}

// Stored describes where an Object landed.
type Stored struct {
	Key         string
	Size        int64
	ContentType string
}

// ObjectStore saves uploaded resumes and reads them back for extraction.
type ObjectStore interface {
	Put(ctx context.Context, obj Object) (Stored, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// NewKey returns namespace/<uuid><ext>, keeping only the lower-cased extension of fileName.
func NewKey(namespace, fileName string) string {
	name := uuid.NewString() + Ext(fileName)
	namespace = strings.Trim(strings.TrimSpace(namespace), "/")
	if namespace == "" {
		return name
	}
	return namespace + "/" + name
}

// Ext is the lower-cased extension of fileName, treating backslashes as separators.
func Ext(fileName string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(fileName, "\\", "/")))
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".txt":  "text/plain; charset=utf-8",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ContentType picks the declared type, then the extension, then sniffs head.
// Sniffing alone reports .docx files as application/zip.
func ContentType(declared, fileName string, head []byte) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if ct, ok := extensionTypes[Ext(fileName)]; ok {
		return ct
	}
	return http.DetectContentType(head)
}
