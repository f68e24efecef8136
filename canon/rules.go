package canon

// Shared pattern fragments.
const (
	intentVerb  = `(оформить|получить|заказать|хочу)`
	cardWordOpt = `(карт[ауеоюий]?\s+)?`
	wantVerb    = `(я\s+хочу|хочу)`
	notProduct  = `(?!\s+(банк|счет|вклад|кредит))`
)

// cardProduct expands the three-rule family shared by named card products:
// an intent phrase ("хочу карту X"), the bare product with an optional
// card word, and a "я хочу X" phrase.
func cardProduct(names, canonical, summary string) []Rule {
	return []Rule{
		Transform(`\b`+intentVerb+`\s+`+cardWordOpt+`(`+names+`)\b`, summary, prefixed("карту "+canonical)),
		Literal(`\b(карт[ауе]?\s+)?(`+names+`)\b`, "карту "+canonical),
		Transform(`\b`+wantVerb+`\s+(`+names+`)\b`, summary, prefixed("карту "+canonical)),
	}
}

// ProductRules normalize card and service product names.
func ProductRules() []Rule {
	var rules []Rule

	rules = append(rules,
		Transform(`\b`+intentVerb+`\s+`+cardWordOpt+`(море|мор)\b`, "'море/мор' → 'карту MORE'", prefixed("карту MORE")),
		Literal(`\b(карт[ауе]?\s+)(море|мор)\b`, "карту MORE"),
		Transform(`\b`+wantVerb+`\s+(море|мор)\b`, "'море/мор' → 'карту MORE'", prefixed("карту MORE")),
		Literal(`\b(море|мор)(?!\s*MORE)\b`, "карту MORE"),
	)
	rules = append(rules, cardProduct(`инфинит[иы]|infinity`, "Infinite", "'инфинити/infinity' → 'карту Infinite'")...)
	rules = append(rules, cardProduct(`платон|plat[\/\-]?on`, "PLAT/ON", "'платон/plat/on' → 'карту PLAT/ON'")...)
	rules = append(rules, cardProduct(`сигнатур[ауеыой]*|signature`, "Signature", "'сигнатур/signature' → 'карту Signature'")...)

	rules = append(rules,
		Transform(`\b`+intentVerb+`\s+`+cardWordOpt+`(форсаж|forsazh)\b`, "'форсаж' → 'карту Форсаж'", prefixed("карту Форсаж")),
		Literal(`\b(карт[ауе]?\s+)?(форсаж|forsazh)\b`, "карту Форсаж"),
		Transform(`\b`+intentVerb+`\s+`+cardWordOpt+`(премиум|premium)\b`, "'премиум/premium' → 'карту Премиум'", prefixed("карту Премиум")),
		Literal(`\b(карт[ауе]?\s+)?(премиум|premium)\b`, "карту Премиум"),
		Transform(`\b`+intentVerb+`\s+`+cardWordOpt+`(голд|gold)\b`, "'голд/gold' → 'карту Gold'", prefixed("карту Gold")),
		Literal(`\b(карт[ауе]?\s+)?(голд|gold)\b`, "карту Gold"),

		Literal(`\b(кстати)`+notProduct+`\b`, "карта КСТАТИ"),
		Literal(`\b(черепах[ауи]?)`+notProduct+`\b`, "карта ЧЕРЕПАХА"),
		Literal(`\b(отличник[ауи]?)`+notProduct+`\b`, "карта Отличник"),
		Literal(`\b(портмоне|portmone)(?!\s*2\.0)`+notProduct+`\b`, "карта Портмоне 2.0"),

		Transform(`\b`+intentVerb+`\s+`+cardWordOpt+`(мир\s+(?:пей|пэй|пай|pay))\b`, "'мир пэй' → 'Mir Pay'", prefixed("Mir Pay")),
		Literal(`\b(карт[ауе]?\s+)?(мир\s+(?:пей|пэй|пай|pay))\b`, "Mir Pay"),
		Transform(`\b`+wantVerb+`\s+(мир\s+(?:пей|пэй|пай|pay))\b`, "'мир пэй' → 'Mir Pay'", prefixed("Mir Pay")),
		Literal(`\b(мир\s+(?:пей|пэй|пай|pay))\b`, "Mir Pay"),

		Literal(`\b(kasko|каска|каско)\b`, "КАСКО"),
		Literal(`\b(суперсемь|super7|supersem|супер7)\b`, "СуперСемь"),
		// "Mir Pay" produced above must survive the payment-system rule.
		Literal(`\b(mir|мир)[а-яёa-z]*\b(?!\s+pay\b)`, "Мир"),
	)
	return rules
}

// ServiceRules normalize banking channels, credentials and common actions.
func ServiceRules() []Rule {
	return []Rule{
		Literal(`\b(онлайн\s*банк[а-яё]*|online\s*bank[a-z]*)\b`, "онлайн-банк"),
		Literal(`\b(интернет\s*банк[а-яё]*|internet\s*bank[a-z]*)\b`, "интернет-банк"),
		Literal(`\b(веб\s*банк[а-яё]*|web\s*bank[a-z]*)\b`, "веб-банк"),

		Literal(`\b(моб\s*прил|mobile\s*app)\b`, "мобильное приложение"),
		Literal(`\b(приложуха|прилож[ае]н[ие]{2,3})\b`, "приложение"),

		Literal(`\b(pin\s*cod[е]?|пин\s*кот|pin)\b`, "ПИН-код"),
		// Skip a ПИН already followed by "код" or "-код".
		Literal(`(?<!ПИН-)\b(пин)(?![\s-]*код)\b`, "ПИН-код"),

		Literal(`\b(креди?тк[ауеоюий]?|credit\s*card)\b`, "кредитная карта"),
		Literal(`\b(кредит[а-яё]*(?<!ная)|kredit)\b`, "кредит"),

		Literal(`\b(депозит|deposit)\b`, "вклад"),
		Literal(`\b(депо)\b`, "вклад"),

		Literal(`\b(transfer|трансфер)\b`, "перевод"),
		Literal(`\b(balance|балланс|баланс)\b`, "баланс"),
		Literal(`\b(блок|block)\b`, "блокировка"),
		Literal(`\b(заблочен[ао]?|blocked)\b`, "заблокирован"),
		Literal(`\b(разблок|unblock)\b`, "разблокировка"),
		Literal(`\b(pass|пасс|password)\b`, "пароль"),
		Literal(`\b(login|log\s*in)\b`, "логин"),
		Literal(`\b(кэш\s*бэк|cash\s*back|кешбек|кэшбек)\b`, "кэшбэк"),
		Literal(`\b(овер\s*драфт|over\s*draft)\b`, "овердрафт"),
		Literal(`\b(sms|смс|смска)\b`, "СМС"),
		Literal(`\b(комисси[яи]|commission)\b`, "комиссия"),
		Literal(`\b(terminal|термина?л)\b`, "терминал"),
		Literal(`\b(банкомат|atm)\b`, "банкомат"),
	}
}

// CurrencyRules normalize currency names to ISO codes.
func CurrencyRules() []Rule {
	return []Rule{
		Literal(`\b(byn|бел\.?\s*руб|белорусски[ехй]\s+рубл[ейя])\b`, "BYN"),
		Literal(`\b(rub|руб|российски[ех]\s+рубл[ейя]|рос\.?\s*руб|rur)\b`, "RUB"),
		Literal(`\b(usd|юсд)\b`, "USD"),
		Literal(`\b(eur|евро)\b`, "EUR"),
	}
}

// OperationRules normalize account operations.
func OperationRules() []Rule {
	return []Rule{
		Literal(`\b(перечислени[ея]|transfer)\b`, "перевод"),
		Literal(`\b(пополнени[ея]|top\s*up)\b`, "пополнение"),
		Literal(`\b(снятие|withdrawal)\b`, "снятие"),
		Literal(`\b(платеж|payment)\b`, "платеж"),
	}
}

// DocumentRules normalize document and account names.
func DocumentRules() []Rule {
	return []Rule{
		Literal(`\b(паспорт|passport)\b`, "паспорт"),
		Literal(`\b(договор|contract)\b`, "договор"),
		Literal(`\b(выписк[ауи]|statement)\b`, "выписка"),
		Literal(`\b(счет|счёт|account)\b`, "счет"),
		Literal(`\b(текущ[ийего]+\s+счет[а]?)\b`, "текущий счет"),
		Literal(`\b(сберегательны[йе]\s+счет[а]?)\b`, "сберегательный счет"),
	}
}

// DefaultRules returns the full rule set in application order.
func DefaultRules() []Rule {
	var rules []Rule
	rules = append(rules, ProductRules()...)
	rules = append(rules, ServiceRules()...)
	rules = append(rules, CurrencyRules()...)
	rules = append(rules, OperationRules()...)
	rules = append(rules, DocumentRules()...)
	return rules
}
