package protocol

// Action is a client command code carried in the request frame header.
type Action uint32

const (
	ActionLogin   Action = 1
	ActionLogout  Action = 2
	ActionMove    Action = 3
	ActionUpgrade Action = 4
	ActionTurn    Action = 5
	ActionPlayer  Action = 6
	ActionGames   Action = 7
	ActionMap     Action = 10

	// Observer actions:
	ActionObserver Action = 100
	ActionGame     Action = 101

	// ActionEvent is written to the action log by the server itself and is
	// never accepted from a client.
	ActionEvent Action = 102
)

func (a Action) String() string {
	switch a {
	case ActionLogin:
		return "LOGIN"
	case ActionLogout:
		return "LOGOUT"
	case ActionMove:
		return "MOVE"
	case ActionUpgrade:
		return "UPGRADE"
	case ActionTurn:
		return "TURN"
	case ActionPlayer:
		return "PLAYER"
	case ActionGames:
		return "GAMES"
	case ActionMap:
		return "MAP"
	case ActionObserver:
		return "OBSERVER"
	case ActionGame:
		return "GAME"
	case ActionEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// Result is a server response code carried in the response frame header.
type Result uint32

const (
	ResultOkey                   Result = 0
	ResultBadCommand             Result = 1
	ResultResourceNotFound       Result = 2
	ResultAccessDenied           Result = 3
	ResultInappropriateGameState Result = 4
	ResultTimeout                Result = 5
	ResultInternalServerError    Result = 500
)

func (r Result) String() string {
	switch r {
	case ResultOkey:
		return "OKEY"
	case ResultBadCommand:
		return "BAD_COMMAND"
	case ResultResourceNotFound:
		return "RESOURCE_NOT_FOUND"
	case ResultAccessDenied:
		return "ACCESS_DENIED"
	case ResultInappropriateGameState:
		return "INAPPROPRIATE_GAME_STATE"
	case ResultTimeout:
		return "TIMEOUT"
	case ResultInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	default:
		return "UNKNOWN"
	}
}
