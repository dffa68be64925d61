package parser

// Keyword sets are matched against whole lowercased words.

var thousandWords = set(
	"ming", "minga", "mingta", "minglik",
	"минг", "тыс", "тысяч", "тысячи", "тысяча",
	"thousand",
)

var millionWords = set(
	"mln", "million", "millionga", "milyon", "millyon", "mlyon",
	"млн", "миллион", "миллиона", "миллионов",
	"mio",
)

// receiptVerbs mark money coming in when no sign is given (SignPolicyVerbs).
var receiptVerbs = set(
	"tushdi", "keldi", "qaytardi", "qaytdi", "berishdi", "topdim", "ishladim",
	"получил", "получила", "пришла", "пришло", "пришли", "вернули",
	"received", "got", "earned",
)

// purchaseVerbs mark money going out and are checked before receiptVerbs.
// "oldim" is listed here: "salfetka oldim" is a purchase far more often than
// "pul oldim" is a receipt.
var purchaseVerbs = set(
	"oldim", "sotib", "to'ladim", "toladim", "to‘ladim", "berdim", "sarfladim", "xarjladim", "xarajat",
	"купил", "купила", "заплатил", "заплатила", "оплатил", "потратил",
	"bought", "paid", "spent",
)

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}
