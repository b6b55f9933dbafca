package command

// Message is the human-readable outcome of a command.
type Message string

// Messages and their status codes.
const (
	MessageOk              Message = "Ok"
	MessageCreated         Message = "Created"
	MessageAccepted        Message = "Accepted"
	MessageNoContent       Message = "NoContent"
	MessageArgumentError   Message = "ArgumentError"
	MessageValueTypeError  Message = "ValueTypeError"
	MessageInvalidArgument Message = "InvalidArgument"
	MessageNodeNotFound    Message = "NodeNotFoundError"
	MessageValueNotFound   Message = "ValueNotFoundError"
	MessageCommandNotFound Message = "CommandNotFound"
	MessageManagerError    Message = "ManagerError"
)

var statusCodes = map[Message]int{
	MessageOk:              200,
	MessageCreated:         201,
	MessageAccepted:        202,
	MessageNoContent:       204,
	MessageArgumentError:   400,
	MessageValueTypeError:  400,
	MessageNodeNotFound:    404,
	MessageValueNotFound:   404,
	MessageCommandNotFound: 404,
	MessageInvalidArgument: 422,
	MessageManagerError:    503,
}

// Status returns the HTTP-like status code of m.
func (m Message) Status() int {
	if code, ok := statusCodes[m]; ok {
		return code
	}
	return 500
}

// Success reports whether m is in the 2xx class.
func (m Message) Success() bool {
	s := m.Status()
	return s >= 200 && s < 300
}
