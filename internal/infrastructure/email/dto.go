package email

// OTPEmailData là nội dung email gửi mã OTP
type OTPEmailData struct {
	Email     string
	Purpose   string
	Code      string
	ExpiresIn string
}

// RefundNoticeData gửi cho bộ phận vận hành khi đơn đã thanh toán bị huỷ
type RefundNoticeData struct {
	OrderNumber   string
	Total         string
	GatewayTxnRef string
	Reason        string
}

type Message struct {
	To      []string
	Subject string
	Body    string
}
