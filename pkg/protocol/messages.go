package protocol

// The message vocabulary is closed and partitioned into five families:
// inbound requests (IN_REQ_*), outbound responses (OUT_RESP_*), outbound
// requests addressed to one client (OUT_REQ_*), inbound responses to those
// (IN_RESP_*), and fire-and-forget broadcasts (OUT_NOTIF_*). Each payload
// type below binds to exactly one tag via its MessageType method.

const (
	TypeInReqSendPublicKey    = "IN_REQ_sendPublicKey"
	TypeInReqVerifySignature  = "IN_REQ_verifysignature"
	TypeInReqRegisterClient   = "IN_REQ_registerClient"
	TypeInReqClientList       = "IN_REQ_clientList"
	TypeInReqSendChat         = "IN_REQ_sendChat"
	TypeInReqMakeAdmin        = "IN_REQ_makeAdmin"
	TypeInReqStartGame        = "IN_REQ_startGame"
	TypeInReqStopGame         = "IN_REQ_stopGame"
	TypeInReqSendAnswer       = "IN_REQ_sendAnswer"
	TypeInReqSendGameSettings = "IN_REQ_sendGameSettings"

	TypeOutRespClientRegistered = "OUT_RESP_clientRegistered"
	TypeOutRespStatus           = "OUT_RESP_status"
	TypeOutRespClientList       = "OUT_RESP_clientList"
	TypeOutRespSignMessage      = "OUT_RESP_signMessage"

	TypeOutReqQuestion = "OUT_REQ_question"
	TypeInRespQuestion = "IN_RESP_question"

	TypeOutNotifClientRegistered    = "OUT_NOTIF_clientRegistered"
	TypeOutNotifClientDisconnected  = "OUT_NOTIF_clientDisconnected"
	TypeOutNotifChatSent            = "OUT_NOTIF_chatSent"
	TypeOutNotifAdminMade           = "OUT_NOTIF_adminMade"
	TypeOutNotifGameStarted         = "OUT_NOTIF_gameStarted"
	TypeOutNotifGameStopped         = "OUT_NOTIF_gameStopped"
	TypeOutNotifQuestion            = "OUT_NOTIF_question"
	TypeOutNotifClientAnswered      = "OUT_NOTIF_clientAnswered"
	TypeOutNotifRoundEnded          = "OUT_NOTIF_roundEnded"
	TypeOutNotifGameSettingsChanged = "OUT_NOTIF_gameSettingsChanged"
)

// Status strings returned in OUT_RESP_status. These are the whole error
// taxonomy of the protocol; no failure is fatal to the connection.
const (
	StatusSuccess = "success"

	StatusReceivingMessage = "receivingMessageError"
	StatusInvalidText      = "invalidTextError"
	StatusInvalidJSON      = "invalidJSONError"
	StatusMissingPayload   = "missingPayloadError"
	StatusWrongPayload     = "wrongPayloadError"
	StatusUnknownMessage   = "unknownMessageError"

	StatusAlreadyValidated  = "alreadyValidatedError"
	StatusNoKey             = "noKeyError"
	StatusWrongSignature    = "wrongSignatureError"
	StatusNotValidated      = "notValidatedError"
	StatusAlreadyRegistered = "alreadyRegisteredError"
	StatusNotRegistered     = "notRegisteredError"
	StatusNoRights          = "noRightsError"
	StatusWrongPassword     = "wrongPasswordError"
	StatusMissingClient     = "missingClientError"

	StatusAlreadyStarted  = "alreadyStarted"
	StatusAlreadyStopped  = "alreadyStopped"
	StatusNoQuestion      = "noQuestion"
	StatusAlreadyAnswered = "alreadyAnswered"
	StatusAlreadyExist    = "alreadyExist"
)

// Inbound requests.

type InReqSendPublicKey struct {
	Key string `json:"key"`
}

type InReqVerifySignature struct {
	Signature string `json:"signature"`
}

type InReqRegisterClient struct {
	Name string `json:"name"`
}

type InReqClientList struct{}

type InReqSendChat struct {
	Message string `json:"message"`
}

type InReqMakeAdmin struct {
	AdminPassword string `json:"adminPassword"`
	ClientID      string `json:"clientId"`
}

type InReqStartGame struct {
	GameSettings GameSettings `json:"gameSettings"`
}

type InReqStopGame struct{}

type InReqSendAnswer struct {
	Answer string `json:"answer"`
}

type InReqSendGameSettings struct {
	GameSettings GameSettings `json:"gameSettings"`
}

// Outbound responses.

type OutRespClientRegistered struct {
	ID           string       `json:"id"`
	GameSettings GameSettings `json:"gameSettings"`
}

type OutRespStatus struct {
	Status string `json:"status"`
}

type OutRespClientList struct {
	Clients []ClientInfo `json:"clients"`
}

type OutRespSignMessage struct {
	Message string `json:"message"`
}

// Server-to-client request and its response.

type OutReqQuestion struct{}

type InRespQuestion struct {
	Question    QuestionInfo `json:"question"`
	QuestionSVG string       `json:"questionSvg"`
}

// Broadcast notifications.

type OutNotifClientRegistered struct {
	Client ClientInfo `json:"client"`
}

type OutNotifClientDisconnected struct {
	ID string `json:"id"`
}

type OutNotifChatSent struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type OutNotifAdminMade struct {
	ID string `json:"id"`
}

type OutNotifGameStarted struct {
	GameSettings GameSettings `json:"gameSettings"`
}

// OutNotifGameStopped reports the final round when the game leaves play.
// Question is absent when the game was stopped before any question arrived.
type OutNotifGameStopped struct {
	Question *QuestionInfo `json:"question,omitempty"`
	Answers  []AnswerInfo  `json:"answers"`
}

type OutNotifQuestion struct {
	QuestionSVG string `json:"questionSvg"`
}

type OutNotifClientAnswered struct {
	ID string `json:"id"`
}

type OutNotifRoundEnded struct {
	Question QuestionInfo `json:"question"`
	Answers  []AnswerInfo `json:"answers"`
}

type OutNotifGameSettingsChanged struct {
	GameSettings GameSettings `json:"gameSettings"`
}

func (InReqSendPublicKey) MessageType() string    { return TypeInReqSendPublicKey }
func (InReqVerifySignature) MessageType() string  { return TypeInReqVerifySignature }
func (InReqRegisterClient) MessageType() string   { return TypeInReqRegisterClient }
func (InReqClientList) MessageType() string       { return TypeInReqClientList }
func (InReqSendChat) MessageType() string         { return TypeInReqSendChat }
func (InReqMakeAdmin) MessageType() string        { return TypeInReqMakeAdmin }
func (InReqStartGame) MessageType() string        { return TypeInReqStartGame }
func (InReqStopGame) MessageType() string         { return TypeInReqStopGame }
func (InReqSendAnswer) MessageType() string       { return TypeInReqSendAnswer }
func (InReqSendGameSettings) MessageType() string { return TypeInReqSendGameSettings }

func (OutRespClientRegistered) MessageType() string { return TypeOutRespClientRegistered }
func (OutRespStatus) MessageType() string           { return TypeOutRespStatus }
func (OutRespClientList) MessageType() string       { return TypeOutRespClientList }
func (OutRespSignMessage) MessageType() string      { return TypeOutRespSignMessage }

func (OutReqQuestion) MessageType() string { return TypeOutReqQuestion }
func (InRespQuestion) MessageType() string { return TypeInRespQuestion }

func (OutNotifClientRegistered) MessageType() string    { return TypeOutNotifClientRegistered }
func (OutNotifClientDisconnected) MessageType() string  { return TypeOutNotifClientDisconnected }
func (OutNotifChatSent) MessageType() string            { return TypeOutNotifChatSent }
func (OutNotifAdminMade) MessageType() string           { return TypeOutNotifAdminMade }
func (OutNotifGameStarted) MessageType() string         { return TypeOutNotifGameStarted }
func (OutNotifGameStopped) MessageType() string         { return TypeOutNotifGameStopped }
func (OutNotifQuestion) MessageType() string            { return TypeOutNotifQuestion }
func (OutNotifClientAnswered) MessageType() string      { return TypeOutNotifClientAnswered }
func (OutNotifRoundEnded) MessageType() string          { return TypeOutNotifRoundEnded }
func (OutNotifGameSettingsChanged) MessageType() string { return TypeOutNotifGameSettingsChanged }
