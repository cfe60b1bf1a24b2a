package bilibili

import (
	"errors"
	"fmt"
)

var (
	ErrMissingCredential = errors.New("缺少必要凭据")
	ErrMalformedResponse = errors.New("接口响应格式非法")
	ErrResponseTooLarge  = errors.New("接口响应过大")
)

// CredentialError 请求所需的凭据字段缺失
type CredentialError struct {
	Field string
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingCredential.Error(), e.Field)
}

func (e *CredentialError) Unwrap() error { return ErrMissingCredential }

// SigningError 获取 mixin key 失败，请求未发送
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("wbi 签名失败: %v", e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// UpstreamError 响应信封表示失败
type UpstreamError struct {
	Code    int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("bilibili报错: %s (code: %d)", e.Message, e.Code)
}

// TransportError 非 2xx 状态码或网络错误，StatusCode 为 0 表示请求未得到响应
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("网络请求失败: %v", e.Err)
	}
	return fmt.Sprintf("HTTP 状态异常: %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }
