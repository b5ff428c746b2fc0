package bot

// Максимальная длина одного сообщения Telegram.
// Более длинный текст режется на последовательные сообщения
const messageLimit = 4096

// Подписи inline-кнопок карточки статьи
const (
	buttonApprove     = "✅ Опубликовать"
	buttonEdit        = "✏️ Изменить"
	buttonReject      = "❌ Отклонить"
	buttonKeepTitle   = "Оставить текущий заголовок"
	buttonKeepSummary = "Оставить текущий пересказ"
)

// Ответы бота
const (
	textNoNews        = "Новых статей нет"
	textAccessDenied  = "Доступ запрещён. Обратитесь к администратору бота"
	textWrongCommand  = "Неверная команда. Для справки введите /help"
	textNotFound      = "Элемент не найден или уже обработан"
	textDuplicate     = "Эта статья уже была опубликована"
	textPromptTitle   = "Пришлите новый заголовок одним сообщением"
	textPromptSummary = "Теперь пришлите новый пересказ одним сообщением"
	textPublished     = "Опубликовано ✅"
	textDiscarded     = "Отклонено ❌"
	textStoreCleared  = "База опубликованных статей очищена"
	textStoreEmpty    = "База опубликованных статей пуста"
	textAutoStarted   = "⏰ Автопостинг запущен"
	textAutoStopped   = "🔕 Автопостинг остановлен"
)

const helpText = `📝 <b>КОМАНДЫ</b>:
* /help – показать помощь
* /news – получить свежие статьи на проверку (можно указать количество: /news 5)
* /post – опубликовать самую свежую статью без проверки (или по ссылке: /post https://...)
* /list – 📃 показать опубликованные статьи
* /clear – ❌ очистить базу опубликованных статей
* /status – показать состояние бота
* /auto_on – ⏰ включить автопостинг (можно указать интервал в минутах: /auto_on 30)
* /auto_off – 🔕 выключить автопостинг
* /add_admin – добавить админа (пример: /add_admin 123456)
* /del_admin – удалить админа
* /add_channel – добавить канал для публикаций (пример: /add_channel -100123456)
* /del_channel – удалить канал

У каждой статьи на проверке три кнопки: опубликовать, изменить (сначала заголовок, потом пересказ), отклонить.`

/*
Команды для BotFather:

help - показать помощь
news - получить свежие статьи на проверку
post - опубликовать самую свежую статью
list - показать опубликованные статьи
clear - очистить базу опубликованных статей
status - показать состояние бота
auto_on - включить автопостинг
auto_off - выключить автопостинг
*/
