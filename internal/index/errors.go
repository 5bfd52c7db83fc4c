package index

import "errors"

var (
	errPrimaryKeyNoDocuments = errors.New("index: cannot infer a primary key from an empty batch")
	errPrimaryKeyMissing     = errors.New("index: document is missing its primary key field")
	errPrimaryKeyType        = errors.New("index: primary key value must be a string or a number")
)
