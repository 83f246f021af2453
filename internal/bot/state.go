package bot

// State — имя состояния диалога. У каждой активной сессии ровно одно
// состояние, оно переживает независимые доставки сообщений через
// эфемерный кэш.
type State string

const (
	StateVisitor            State = "VISITOR"
	StateVisitorPhone       State = "VISITOR_PHONENUMBER"
	StateClient             State = "CLIENT"
	StateClientNewRequest   State = "CLIENT_NEW_REQUEST"
	StateClientNewComment   State = "CLIENT_NEW_COMMENT"
	StateClientNewComplaint State = "CLIENT_NEW_COMPLAINT"
	StateNewContractor      State = "NEW_CONTRACTOR"
	StateSubscription       State = "SUBSCRIPTION"
	StateContractor         State = "CONTRACTOR"
	StateSetEstimate        State = "CONTRACTOR_SET_ESTIMATE"
	StateManager            State = "MANAGER"
	StateOwner              State = "OWNER"
	StateCatalog            State = "CATALOG"
	StateCatalogNewService  State = "CATALOG_NEW_SERVICE"
)

// EventKind — тип входящего события чат-платформы.
type EventKind int

const (
	KindText EventKind = iota
	KindCommand
	KindContact
	KindCallback
)

// Contact — структурированная передача телефона из чат-платформы.
type Contact struct {
	Phone     string
	FirstName string
}

// Update — входящее событие диалога.
type Update struct {
	ChatID            int64
	Name              string
	Text              string
	Command           string
	Contact           *Contact
	Callback          string
	CallbackMessageID int64
}

// Kind определяет тип события. Порядок проверок важен: команда и контакт
// приходят в том же конверте, что и обычный текст.
func (u Update) Kind() EventKind {
	switch {
	case u.Callback != "":
		return KindCallback
	case u.Command != "":
		return KindCommand
	case u.Contact != nil:
		return KindContact
	default:
		return KindText
	}
}
