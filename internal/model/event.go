package model

// EventType enumerates everything that can happen to a train or a post.
type EventType int

const (
	EventTrainCollision   EventType = 1
	EventHijackersAssault EventType = 2
	EventParasitesAssault EventType = 3
	EventRefugeesArrival  EventType = 4
	EventResourceOverflow EventType = 5
	EventResourceLack     EventType = 6
	EventGameOver         EventType = 100
)

func (t EventType) String() string {
	switch t {
	case EventTrainCollision:
		return "TRAIN_COLLISION"
	case EventHijackersAssault:
		return "HIJACKERS_ASSAULT"
	case EventParasitesAssault:
		return "PARASITES_ASSAULT"
	case EventRefugeesArrival:
		return "REFUGEES_ARRIVAL"
	case EventResourceOverflow:
		return "RESOURCE_OVERFLOW"
	case EventResourceLack:
		return "RESOURCE_LACK"
	case EventGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

// Event is a value record attached to a train or post. The payload fields
// are pointers so that kind-specific zero values (a town starving at
// population 0, a lacking resource at 0) still serialize, while fields
// foreign to the kind are omitted.
type Event struct {
	Type EventType `json:"type"`
	Tick int       `json:"tick"`

	Train          *int `json:"train,omitempty"`
	HijackersPower *int `json:"hijackers_power,omitempty"`
	ParasitesPower *int `json:"parasites_power,omitempty"`
	RefugeesNumber *int `json:"refugees_number,omitempty"`
	Population     *int `json:"population,omitempty"`
	Product        *int `json:"product,omitempty"`
	Armor          *int `json:"armor,omitempty"`
}

func intp(v int) *int { return &v }

// NewCollisionEvent references the other train of the pair.
func NewCollisionEvent(tick, otherTrain int) Event {
	return Event{Type: EventTrainCollision, Tick: tick, Train: intp(otherTrain)}
}

func NewHijackersEvent(tick, power int) Event {
	return Event{Type: EventHijackersAssault, Tick: tick, HijackersPower: intp(power)}
}

func NewParasitesEvent(tick, power int) Event {
	return Event{Type: EventParasitesAssault, Tick: tick, ParasitesPower: intp(power)}
}

func NewRefugeesEvent(tick, number int) Event {
	return Event{Type: EventRefugeesArrival, Tick: tick, RefugeesNumber: intp(number)}
}

func NewPopulationOverflowEvent(tick, population int) Event {
	return Event{Type: EventResourceOverflow, Tick: tick, Population: intp(population)}
}

func NewProductOverflowEvent(tick, product int) Event {
	return Event{Type: EventResourceOverflow, Tick: tick, Product: intp(product)}
}

func NewArmorOverflowEvent(tick, armor int) Event {
	return Event{Type: EventResourceOverflow, Tick: tick, Armor: intp(armor)}
}

func NewProductLackEvent(tick int) Event {
	return Event{Type: EventResourceLack, Tick: tick, Product: intp(0)}
}

func NewArmorLackEvent(tick int) Event {
	return Event{Type: EventResourceLack, Tick: tick, Armor: intp(0)}
}

func NewGameOverEvent(tick int) Event {
	return Event{Type: EventGameOver, Tick: tick, Population: intp(0)}
}
