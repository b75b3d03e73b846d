package v1

import (
	"errors"

	"PipelineCRM/apps/crm/internal/service"
	"PipelineCRM/consts"
)

// ExtractErrorCode 把服务层错误映射为业务错误码
// 先匹配具体错误，再落到所属的错误族，最后归为内部错误
func ExtractErrorCode(err error) int32 {
	switch {
	case err == nil:
		return consts.CodeSuccess
	case errors.Is(err, service.ErrEmptyContactId):
		return consts.CodeEmptyContactId
	case errors.Is(err, service.ErrSelfLink):
		return consts.CodeSelfLink
	case errors.Is(err, service.ErrMergeSameContact):
		return consts.CodeMergeSameContact
	case errors.Is(err, service.ErrInvalidSelectionType):
		return consts.CodeInvalidSelectionType
	case errors.Is(err, service.ErrInvalidArgument):
		return consts.CodeParamError
	case errors.Is(err, service.ErrStoreUnavailable):
		return consts.CodeServiceUnavailable
	default:
		return consts.CodeInternalError
	}
}
