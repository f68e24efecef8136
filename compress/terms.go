package compress

// DefaultDomainTerms marks a sentence as worth keeping when any term occurs
// in it (case-insensitive substring match).
var DefaultDomainTerms = []string{
	"карт", "банк", "счет", "вклад", "кредит", "перевод", "платеж", "оплата",
	"снятие", "пополнение", "блокировка", "разблокировка", "пароль", "пин",
	"онлайн", "мобильное", "приложение", "банкомат", "терминал", "комиссия",
	"баланс", "выписка", "договор", "паспорт", "документ", "подтверждение",
	"все про все", "PLAT/ON", "Signature", "КС", "ЧЕРЕПАХА", "Отличник",
	"Портмоне", "Форсаж", "все только начинается",
	"card", "bank", "account", "deposit", "credit", "loan", "transfer",
	"payment", "balance", "block", "password", "pin", "atm", "terminal",
	"statement", "cashback", "fee",
}

// DefaultPolitenessPatterns are removed from long queries before sentence
// selection. They are compiled case-insensitively.
var DefaultPolitenessPatterns = []string{
	`добрый\s+(день|вечер|утро)`,
	`здравствуйте\s*[!.]*`,
	`спасибо\s+(за\s+)?(что\s+)?(помощь|ответ|внимание)?`,
	`пожалуйста\s*[!.]*`,
	`извините\s+(за\s+)?(что\s+)?(беспокойство|неудобство)?`,
	`благодарю\s+(за\s+)?(что\s+)?(помощь|ответ|внимание)?`,
	`очень\s+(много|большое|большой|большая)\s+спасибо`,
	`заранее\s+спасибо`,
	`с\s+уважением\s*[,.]*`,
	`до\s+свидания\s*[!.]*`,
	`всего\s+(хорошего|доброго)\s*[!.]*`,
	`\b(good\s+(morning|afternoon|evening)|hello|hi|hey)\b\s*[!,.]*`,
	`\bplease\s+help(\s+me)?\b`,
	`\b(thanks|thank\s+you)(\s+in\s+advance)?\b\s*[!.]*`,
	`\bplease\b`,
	`\b(best\s+regards|kind\s+regards|regards)\b\s*[,.]*`,
	`\bsorry\s+(to\s+bother(\s+you)?|for\s+the\s+trouble)\b`,
}
