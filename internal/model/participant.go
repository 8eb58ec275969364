package model

// Participant 外部账号系统中的用户投影
// 账号的注册、角色分配由外部系统负责，本服务只读
type Participant struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}
