package consts

// 通用错误码
const (
	CodeSuccess = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	CodeParamError       = 10001 // 参数验证失败
	CodeBodyError        = 10002 // 请求体格式错误
	CodeResourceNotFound = 10003 // 资源不存在
	CodeMethodNotAllowed = 10004 // 请求方法不允许
	CodeTooManyRequests  = 10005 // 请求过于频繁
)

// 关系模块错误 (11xxx)
const (
	CodeSelfLink         = 11001 // 不能将联系人与自身建立关系
	CodeEmptyContactId   = 11002 // 联系人id为空
	CodeRelationNotFound = 11003 // 不存在该联系人关系
	CodeMergeSameContact = 11004 // 合并双方是同一个联系人
)

// 软删除模块错误 (12xxx)
const (
	CodeUndoGroupNotFound = 12001 // 撤销组不存在或已失效
	CodeNothingDeleted    = 12002 // 没有可删除的记录
)

// 选区模块错误 (13xxx)
const (
	CodeInvalidSelectionType = 13001 // 选区类型不合法
)

// 服务端错误 (3xxxx)
const (
	CodeInternalError      = 30001 // 服务器内部错误
	CodeServiceUnavailable = 30002 // 服务暂不可用
	CodeTimeoutError       = 30003 // 请求处理超时
)

// 错误消息映射
var CodeMessage = map[int32]string{
	CodeSuccess: "success",

	// 客户端错误
	CodeParamError:       "参数验证失败",
	CodeBodyError:        "请求体格式错误",
	CodeResourceNotFound: "资源不存在",
	CodeMethodNotAllowed: "请求方法不允许",
	CodeTooManyRequests:  "请求过于频繁",

	// 关系模块
	CodeSelfLink:         "不能将联系人与自身建立关系",
	CodeEmptyContactId:   "联系人id不能为空",
	CodeRelationNotFound: "不存在该联系人关系",
	CodeMergeSameContact: "合并双方不能是同一个联系人",

	// 软删除模块
	CodeUndoGroupNotFound: "撤销组不存在或已失效",
	CodeNothingDeleted:    "没有可删除的记录",

	// 选区模块
	CodeInvalidSelectionType: "选区类型不合法",

	// 服务端错误
	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
	CodeTimeoutError:       "请求处理超时",
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int32) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 判断是否为非服务端错误（客户端/业务错误）。
// 业务错误属于正常流程，不打 error 级别日志。
func IsNonServerError(code int) bool {
	return code > 0 && code < 30000
}
