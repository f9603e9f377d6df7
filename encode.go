package gateway

import (
	"github.com/bytedance/sonic"
)

// codec is the JSON implementation shared by body parsing, body decoding and
// error encoding. Numbers decode as json.Number so re-encoding them
// reproduces the original text.
var codec = sonic.Config{
	EscapeHTML:  true,
	SortMapKeys: true,
	UseNumber:   true,
	CopyString:  true,
}.Froze()
