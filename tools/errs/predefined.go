package errs

// Stable error kinds. Codes are part of the client contract: 11xx connection
// auth, 12xx request auth, 13xx validation, 14xx backplane, 15xx internal.
const (
	AuthenticationErr = 1101
	TokenExpiredErr   = 1102

	AuthorizationErr = 1201
	RoomAccessErr    = 1202
	RoleRequiredErr  = 1203
	NotMemberErr     = 1204

	ValidationErr   = 1301
	UnknownEventErr = 1302

	BackplaneErr = 1401

	InternalErr = 1500
)

var (
	ErrAuthentication = NewCodeError(AuthenticationErr, "authentication failed")
	ErrTokenExpired   = NewCodeError(TokenExpiredErr, "token expired")

	ErrAuthorization = NewCodeError(AuthorizationErr, "not authorized")
	ErrRoomAccess    = NewCodeError(RoomAccessErr, "access denied to room")
	ErrRoleRequired  = NewCodeError(RoleRequiredErr, "role not permitted")
	ErrNotMember     = NewCodeError(NotMemberErr, "not a member of room")

	ErrValidation   = NewCodeError(ValidationErr, "malformed payload")
	ErrUnknownEvent = NewCodeError(UnknownEventErr, "unknown event type")

	ErrBackplane = NewCodeError(BackplaneErr, "backplane unavailable")

	ErrInternal = NewCodeError(InternalErr, "internal error")
)
