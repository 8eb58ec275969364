package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.portal/pkg/apperrors"
)

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 错误码常量（使用 pkg/apperrors 包的定义）
const (
	CodeSuccess = apperrors.CodeSuccess

	// 认证相关 10000-10999
	CodeTokenInvalid = apperrors.CodeTokenInvalid
	CodeTokenExpired = apperrors.CodeTokenExpired

	// 账号相关 11000-11999
	CodeAccountNotFound = apperrors.CodeAccountNotFound
	CodeInvalidParams   = apperrors.CodeInvalidParams

	// 会话相关 12000-12999
	CodeConversationNotFound = apperrors.CodeConversationNotFound
	CodeNotParticipant       = apperrors.CodeNotParticipant
	CodeCannotChatSelf       = apperrors.CodeCannotChatSelf

	// 消息相关 13000-13999
	CodeEmptyMessage = apperrors.CodeEmptyMessage
	CodeUploadFailed = apperrors.CodeUploadFailed

	// 系统错误 50000-50999
	CodeServerError = apperrors.CodeServerError
	CodeDBError     = apperrors.CodeDBError
)

var codeMessages = map[int]string{
	CodeSuccess:              "success",
	CodeTokenInvalid:         "Token 无效",
	CodeTokenExpired:         "Token 已过期",
	CodeAccountNotFound:      "用户不存在",
	CodeInvalidParams:        "参数校验失败",
	CodeConversationNotFound: "会话不存在",
	CodeNotParticipant:       "不是该会话的参与者",
	CodeCannotChatSelf:       "不能和自己发起会话",
	CodeEmptyMessage:         "消息内容不能为空",
	CodeUploadFailed:         "附件上传失败",
	CodeServerError:          "服务器内部错误",
	CodeDBError:              "数据库错误",
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    CodeSuccess,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int) {
	message := codeMessages[code]
	if message == "" {
		message = "unknown error"
	}
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorWithMsg 自定义错误消息
func ErrorWithMsg(c *gin.Context, code int, message string) {
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// ErrorFromAppError 从 AppError 生成错误响应
func ErrorFromAppError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	message := apperrors.GetMessage(err)
	c.JSON(http.StatusOK, Response{
		Code:    code,
		Message: message,
		Data:    nil,
	})
}

// Unauthorized 未认证
func Unauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Code:    CodeTokenInvalid,
		Message: codeMessages[CodeTokenInvalid],
		Data:    nil,
	})
}
