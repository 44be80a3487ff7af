//go:build !govips || !cgo

package transform

func Startup() error {
	return nil
}

func Shutdown() {}

func NewCodec() Codec {
	return stdCodec{}
}
