package editor

// MessageListener получает строки состояния редактора ("3 places copied", ...)
type MessageListener interface {
	OnMessage(msg string)
}

// MessageFunc адаптирует функцию к MessageListener
type MessageFunc func(msg string)

// OnMessage вызывает f(msg)
func (f MessageFunc) OnMessage(msg string) {
	f(msg)
}

const (
	msgNoSpace     = "Can't paste: not enough free space on map"
	msgEmptyBuffer = "Can't paste: no places cut or copied"
	msgNoPath      = "No Path found"
)
