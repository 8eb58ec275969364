package model

import "time"

// Conversation 两人会话
// 创建后不可变，永不删除；参与者恰好两人，顺序无意义
type Conversation struct {
	ID           int64     `json:"id"`
	ObjectCode   string    `json:"object_code"`
	ParticipantA int64     `json:"participant_a"`
	ParticipantB int64     `json:"participant_b"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasParticipant 判断用户是否为会话参与者
func (c *Conversation) HasParticipant(userID int64) bool {
	return c.ParticipantA == userID || c.ParticipantB == userID
}

// Peer 返回会话中相对于 selfID 的另一方
// selfID 不是参与者时返回 0
func (c *Conversation) Peer(selfID int64) int64 {
	switch selfID {
	case c.ParticipantA:
		return c.ParticipantB
	case c.ParticipantB:
		return c.ParticipantA
	default:
		return 0
	}
}
