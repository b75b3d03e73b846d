package service

import (
	"errors"
	"fmt"
)

// ==================== Service 层错误分类 ====================
// 三类语义：
// - ErrInvalidArgument：前置校验失败，在任何存储访问之前同步返回；
// - ErrStoreUnavailable：存储整体不可用（批处理里单条失败走跳过策略，不用它）；
// - NotFound 不是错误：解绑不存在的边、撤销不存在的组都按幂等 no-op 处理。

var (
	// ErrInvalidArgument 参数校验失败
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyContactId 联系人id为空
	ErrEmptyContactId = fmt.Errorf("%w: 联系人id不能为空", ErrInvalidArgument)

	// ErrSelfLink 不允许自环
	ErrSelfLink = fmt.Errorf("%w: 不能将联系人与自身建立关系", ErrInvalidArgument)

	// ErrMergeSameContact 合并双方是同一联系人
	ErrMergeSameContact = fmt.Errorf("%w: 合并双方不能是同一个联系人", ErrInvalidArgument)

	// ErrInvalidSelectionType 未知的选区类型
	ErrInvalidSelectionType = fmt.Errorf("%w: 无效的选区类型", ErrInvalidArgument)

	// ErrStoreUnavailable 存储不可用
	ErrStoreUnavailable = errors.New("store unavailable")
)
