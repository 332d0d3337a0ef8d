package apperrors

var (
	ErrUserNotFound         = NotFound("user not found")
	ErrConversationNotFound = NotFound("conversation not found")
	ErrMessageNotFound      = NotFound("message not found")
	ErrContactNotFound      = NotFound("contact not found")
	ErrNoProfilePicture     = NotFound("no profile picture set")

	ErrUsernameTaken = Conflict("username is already taken")
	ErrEmailTaken    = Conflict("email is already registered")
	ErrContactExists = Conflict("contact already exists")

	ErrNotParticipant  = Forbidden("caller is not an active participant of the conversation")
	ErrNotMessageOwner = Forbidden("only the sender can edit a message")

	ErrMessageDeleted = InvalidState("message has been deleted")

	ErrInvalidCredentials = Unauthenticated("invalid credentials")
)
