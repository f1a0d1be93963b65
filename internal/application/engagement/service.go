package engagement

type Service struct {
	store DeviceStore
	clock Clock
}

func New(store DeviceStore, clock Clock) *Service {
	return &Service{store: store, clock: clock}
}
