package connectors

const (
	TopicConnStatus  = "conn.status"
	TopicRawFrameIn  = "raw.frame.in"
	TopicDripStatus  = "drip.status"
	TopicAlertState  = "alert.state"
	TopicSessionInfo = "session.info"
)
