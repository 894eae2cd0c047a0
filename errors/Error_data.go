package errors

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrDataI is an interface for error data that can be set, retrieved, and encoded.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is a generic error data structure that implements the ErrDataI interface.
type ErrData map[string]interface{}

func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	if *e == nil {
		*e = ErrData{}
	}

	(*e)[key] = value
}

func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

func (e *ErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// HeaderErrData pinpoints the header that caused a verification failure.
type HeaderErrData struct {
	Index  int    `json:"index"`
	Height uint32 `json:"height"`
	Hash   string `json:"hash,omitempty"`
}

func (e *HeaderErrData) Error() string {
	return fmt.Sprintf("header %d at height %d %s", e.Index, e.Height, e.Hash)
}

func (e *HeaderErrData) SetData(key string, value interface{}) {
	switch key {
	case "index":
		if v, ok := value.(int); ok {
			e.Index = v
		}
	case "height":
		if v, ok := value.(uint32); ok {
			e.Height = v
		}
	case "hash":
		if v, ok := value.(string); ok {
			e.Hash = v
		}
	}
}

func (e *HeaderErrData) GetData(key string) interface{} {
	switch key {
	case "index":
		return e.Index
	case "height":
		return e.Height
	case "hash":
		return e.Hash
	}

	return nil
}

func (e *HeaderErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// NewHeaderError creates a verification error annotated with the offending header.
func NewHeaderError(code ERR, index int, height uint32, hash string, message string, params ...interface{}) error {
	e := New(code, message, params...)
	e.data = &HeaderErrData{Index: index, Height: height, Hash: hash}

	return e
}

// GetErrorData retrieves error data based on the error code and unmarshals it from a byte slice.
func GetErrorData(code ERR, dataBytes []byte) (ErrDataI, error) {
	var errData ErrDataI

	if IsHeaderRejectionCode(code) {
		errData = &HeaderErrData{}
	} else {
		errData = &ErrData{}
	}

	if err := json.Unmarshal(dataBytes, errData); err != nil {
		return errData, err
	}

	return errData, nil
}
