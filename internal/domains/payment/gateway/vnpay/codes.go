package vnpay

// =====================================================
// VNPAY RESPONSE CODES
// =====================================================

const (
	ResponseCodeSuccess              = "00"
	ResponseCodeSuspicious           = "07"
	ResponseCodeNotRegistered        = "09"
	ResponseCodeAuthFailed           = "10"
	ResponseCodeTimeout              = "11"
	ResponseCodeCardLocked           = "12"
	ResponseCodeIncorrectOTP         = "13"
	ResponseCodeUserCancelled        = "24"
	ResponseCodeInsufficientBalance  = "51"
	ResponseCodeLimitExceeded        = "65"
	ResponseCodeBankMaintenance      = "75"
	ResponseCodeWrongPasswordTooMany = "79"
	ResponseCodeOther                = "99"
)

var responseMessages = map[string]string{
	ResponseCodeSuccess:              "Giao dịch thành công",
	ResponseCodeSuspicious:           "Trừ tiền thành công, giao dịch bị nghi ngờ",
	ResponseCodeNotRegistered:        "Thẻ/Tài khoản chưa đăng ký InternetBanking",
	ResponseCodeAuthFailed:           "Xác thực thông tin thẻ/tài khoản không đúng quá 3 lần",
	ResponseCodeTimeout:              "Đã hết hạn chờ thanh toán",
	ResponseCodeCardLocked:           "Thẻ/Tài khoản bị khóa",
	ResponseCodeIncorrectOTP:         "Nhập sai mật khẩu xác thực giao dịch (OTP)",
	ResponseCodeUserCancelled:        "Khách hàng hủy giao dịch",
	ResponseCodeInsufficientBalance:  "Tài khoản không đủ số dư",
	ResponseCodeLimitExceeded:        "Tài khoản đã vượt quá hạn mức giao dịch trong ngày",
	ResponseCodeBankMaintenance:      "Ngân hàng thanh toán đang bảo trì",
	ResponseCodeWrongPasswordTooMany: "Nhập sai mật khẩu thanh toán quá số lần quy định",
	ResponseCodeOther:                "Lỗi không xác định",
}

// ResponseMessage returns the Vietnamese message for a response code
func ResponseMessage(code string) string {
	if msg, ok := responseMessages[code]; ok {
		return msg
	}
	return responseMessages[ResponseCodeOther]
}

// =====================================================
// IPN REPLY
// =====================================================

// IPNResponse là body JSON VNPay chờ nhận từ IPN endpoint
type IPNResponse struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

var (
	IPNConfirmed        = IPNResponse{RspCode: "00", Message: "Confirm Success"}
	IPNOrderNotFound    = IPNResponse{RspCode: "01", Message: "Order not found"}
	IPNAlreadyConfirmed = IPNResponse{RspCode: "02", Message: "Order already confirmed"}
	IPNInvalidAmount    = IPNResponse{RspCode: "04", Message: "Invalid amount"}
	IPNInvalidSignature = IPNResponse{RspCode: "97", Message: "Invalid signature"}
	IPNUnknownError     = IPNResponse{RspCode: "99", Message: "Unknown error"}
)
