package service

// Client-facing messages for account failures. Login uses one message for
// both unknown email and wrong password.
const (
	MsgEmailTaken         = "Email already registered"
	MsgInvalidCredentials = "Invalid email or password"
	MsgFarmerNotFound     = "Farmer not found"
)
