package storage

import "errors"

var (
	ErrInvalidConfig         = errors.New("invalid storage configuration")
	ErrNilFileHeader         = errors.New("nil file header")
	ErrInvalidKey            = errors.New("invalid object key")
	ErrForeignKey            = errors.New("object key outside organization prefix")
	ErrFileTooLarge          = errors.New("file too large")
	ErrContentTypeNotAllowed = errors.New("content type not allowed")
	ErrNotFound              = errors.New("object not found")
	ErrPrefixNotFound        = errors.New("prefix not found")
	ErrBucketNotFound        = errors.New("bucket not found")
	ErrAccessDenied          = errors.New("storage access denied")
	ErrFailedToOpenFile      = errors.New("failed to open file")
	ErrFailedToReadFile      = errors.New("failed to read file")
	ErrFailedToWriteFile     = errors.New("failed to write file")
	ErrFailedToDelete        = errors.New("failed to delete object")
	ErrFailedToList          = errors.New("failed to list objects")
	ErrFailedToLoadConfig    = errors.New("failed to load aws configuration")
)
