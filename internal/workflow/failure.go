package workflow

import "errors"

// Reason — типизированная причина отказа операции.
// Заменяет "Ошибка: ..." внутри обычных строк ответа
type Reason int

const (
	// ReasonNotFound — элемент уже обработан или никогда не существовал
	ReasonNotFound Reason = iota + 1
	// ReasonDuplicate — статья уже была опубликована
	ReasonDuplicate
	// ReasonUpstream — не ответила лента или API суммаризации
	ReasonUpstream
	// ReasonDelivery — не получилось доставить сообщение в канал
	ReasonDelivery
	// ReasonInvalidState — действие не подходит к текущему состоянию элемента
	ReasonInvalidState
	// ReasonAmbiguous — текстовый ввод ожидают сразу несколько элементов
	ReasonAmbiguous
)

// Failure — ошибка операции workflow с типизированной причиной
type Failure struct {
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	msg := ""
	switch f.Reason {
	case ReasonNotFound:
		msg = "элемент не найден или уже обработан"
	case ReasonDuplicate:
		msg = "статья уже была опубликована"
	case ReasonUpstream:
		msg = "внешний сервис не ответил"
	case ReasonDelivery:
		msg = "не получилось отправить сообщение в канал"
	case ReasonInvalidState:
		msg = "действие не подходит к текущему состоянию"
	case ReasonAmbiguous:
		msg = "сначала завершите текущее редактирование"
	default:
		msg = "неизвестная ошибка"
	}
	if f.Err != nil {
		return msg + ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// ReasonOf возвращает причину отказа или 0, если ошибка не из workflow
func ReasonOf(err error) Reason {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return 0
}
