package flows

const (
	msgAlreadyRegistered = "Вы уже зарегистрированы."
	msgAskName           = "Пожалуйста, введите ваш логин:"
	msgEmptyName         = "Логин не может быть пустым. Попробуйте снова."
	msgRegistered        = "Вы успешно зарегистрированы под именем %s!"
	msgRegisterFirst     = "Пожалуйста, зарегистрируйтесь сначала (/reg)."

	msgAskKind      = "Выберите тип операции:"
	msgBadKind      = "Пожалуйста, выберите тип операции: РАСХОД или ДОХОД."
	msgAskAmount    = "Введите сумму операции в рублях:"
	msgBadAmount    = "Неверный формат суммы. Попробуйте снова."
	msgAskDate      = "Укажите дату операции (в формате ГГГГ-ММ-ДД):"
	msgBadDate      = "Неверный формат даты. Попробуйте снова."
	msgOperationAdd = "Операция успешно добавлена."

	msgAskBudget   = "Введите бюджет на текущий месяц:"
	msgBudgetSaved = "Информация о бюджете успешно сохранена."

	msgAskCurrency     = "Выберите валюту:"
	msgBadCurrency     = "Пожалуйста, выберите одну из предложенных валют."
	msgRateUnavailable = "Курс обмена для %s не найден"

	msgFinishCurrent = "Сначала завершите текущую операцию."
	msgInternalError = "Произошла ошибка, попробуйте ещё раз позже."
)

var (
	kindKeyboard     = [][]string{{"РАСХОД"}, {"ДОХОД"}}
	currencyKeyboard = [][]string{{"USD"}, {"RUB"}, {"EUR"}}
)
