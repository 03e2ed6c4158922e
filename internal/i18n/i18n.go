// Package i18n holds every user-facing text of the game in the supported
// languages.
package i18n

import (
	"fmt"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

type Key string

const (
	ButtonParticipate Key = "button.participate"
	ButtonAccept      Key = "button.accept"
	ButtonDeny        Key = "button.deny"
	ButtonMember      Key = "button.member"
	ButtonSkip        Key = "button.skip"

	NoGame          Key = "error.no_game"
	NotCreator      Key = "error.not_creator"
	AlreadyInGame   Key = "error.already_in_game"
	NotRegistration Key = "error.not_registration"
	TooLong         Key = "error.too_long"
	NotYourTurn     Key = "error.not_your_turn"

	RegistrationStarted      Key = "registration.started"
	RegistrationExists       Key = "registration.exists"
	RegistrationParticipants Key = "registration.participants"
	RegistrationRemind       Key = "registration.remind"
	RegistrationJoined       Key = "registration.joined"
	RegistrationExtended     Key = "registration.extended"
	RegistrationStopped      Key = "registration.stopped"
	NotEnoughParticipants    Key = "registration.not_enough"

	SearchHusband   Key = "husband.search"
	OfferHusband    Key = "husband.offer"
	OfferTimedOut   Key = "husband.offer_timed_out"
	HusbandDenied   Key = "husband.denied"
	HusbandAccepted Key = "husband.accepted"
	HusbandFound    Key = "husband.found"
	RandomRole      Key = "husband.random_role"
	MemberNumber    Key = "husband.member_number"

	AskQuestion         Key = "question.ask"
	WaitingQuestion     Key = "question.waiting"
	QuestionPublished   Key = "question.published"
	QuestionAFKPersonal Key = "question.afk_personal"

	AskAnswer         Key = "answers.ask"
	AskHusbandMessage Key = "answers.ask_husband"
	AnswerSaved       Key = "answers.saved"
	HusbandMessage    Key = "answers.husband_message"
	AnswersPublished  Key = "answers.published"
	AnswerLine        Key = "answers.line"
	NoAnswer          Key = "answers.none"
	AnswerAFKPersonal Key = "answers.afk_personal"

	AskElimination     Key = "elimination.ask"
	WaitingElimination Key = "elimination.waiting"
	ChoiceAccepted     Key = "elimination.choice_accepted"
	ChoiceTimedOut     Key = "elimination.choice_timed_out"
	Eliminated         Key = "elimination.done"
	EliminationSkipped Key = "elimination.skipped"
	EliminationRandom  Key = "elimination.random"
	AllAFK             Key = "elimination.all_afk"
	Winner             Key = "elimination.winner"
	FinalRound         Key = "elimination.final"

	FinishedChat       Key = "finished.chat"
	FinishedHusbandAFK Key = "finished.husband_afk"
	GameOver           Key = "finished.personal"
)

var supported = []language.Tag{language.Ukrainian, language.English}

type entry struct {
	key Key
	uk  any
	en  any
}

var texts = []entry{
	{ButtonParticipate, "Беру участь", "Participate"},
	{ButtonAccept, "Так", "Yes"},
	{ButtonDeny, "Ні", "No"},
	{ButtonMember, "№%d", "#%d"},
	{ButtonSkip, "Пропустити (%d)", "Skip (%d)"},

	{NoGame, "У цьому чаті немає гри", "There is no game in this chat"},
	{NotCreator, "Це може зробити лише %s", "Only %s can do that"},
	{AlreadyInGame, "Ви вже берете участь у грі", "You are already playing"},
	{NotRegistration, "Реєстрацію вже закрито", "Registration is already closed"},
	{TooLong, "Задовго: %d із %d символів", "Too long: %d of %d characters"},
	{NotYourTurn, "Зараз не ваша черга", "It is not your turn"},

	{RegistrationStarted, "%s починає гру «Чоловік»! Натисніть «Беру участь».", "%s starts a game of Husband! Press Participate to join."},
	{RegistrationExists, "Гру вже створив %s", "%s has already created a game"},
	{RegistrationParticipants, "Учасники (%d):\n%s", "Participants (%d):\n%s"},
	{RegistrationRemind,
		plural.Selectf(1, "%d",
			"one", "Залишилась %d секунда, щоб приєднатися!",
			"few", "Залишилось %d секунди, щоб приєднатися!",
			"many", "Залишилось %d секунд, щоб приєднатися!",
			"other", "Залишилось %d секунд, щоб приєднатися!"),
		plural.Selectf(1, "%d",
			"one", "%d second left to join!",
			"other", "%d seconds left to join!")},
	{RegistrationJoined, "Ви приєдналися до гри", "You joined the game"},
	{RegistrationExtended, "Реєстрацію продовжено. Залишилось %d с", "Registration extended. %d s left"},
	{RegistrationStopped, "Гру зупинено", "The game was stopped"},
	{NotEnoughParticipants, "Недостатньо учасників. Потрібно щонайменше %d", "Not enough participants. At least %d are needed"},

	{SearchHusband, "Шукаємо чоловіка...", "Looking for a husband..."},
	{OfferHusband, "Хочете бути чоловіком у цій грі?", "Do you want to be the husband this game?"},
	{OfferTimedOut, "Час вийшов, пропозицію отримає хтось інший", "Time is up, the offer goes to someone else"},
	{HusbandDenied, "Ви відмовилися", "You declined"},
	{HusbandAccepted, "Тепер ви чоловік!", "You are the husband now!"},
	{HusbandFound, "%s тепер чоловік!", "%s is the husband!"},
	{RandomRole, "Ніхто не захотів бути чоловіком, тож жереб упав на вас", "Nobody wanted to be the husband, so the lot fell on you"},
	{MemberNumber, "Ваш номер у грі: %d", "Your number in this game: %d"},

	{AskQuestion, "Напишіть запитання (до %d символів)", "Write your question (up to %d characters)"},
	{WaitingQuestion, "Чоловік придумує запитання...", "The husband is thinking of a question..."},
	{QuestionPublished, "Запитання від чоловіка:\n\n%s", "The husband asks:\n\n%s"},
	{QuestionAFKPersonal, "Ви не поставили запитання вчасно", "You did not ask a question in time"},

	{AskAnswer, "Запитання:\n\n%s\n\nВідповідайте (до %d символів)", "Question:\n\n%s\n\nReply (up to %d characters)"},
	{AskHusbandMessage, "Поки учасники відповідають, можете написати в чат (до %d символів)", "While members answer you can write to the chat (up to %d characters)"},
	{AnswerSaved, "Відповідь збережено", "Answer saved"},
	{HusbandMessage, "Чоловік: %s", "Husband: %s"},
	{AnswersPublished, "Відповіді:\n\n%s", "Answers:\n\n%s"},
	{AnswerLine, "№%d: %s", "#%d: %s"},
	{NoAnswer, "№%d не відповів і вибуває", "#%d did not answer and is out"},
	{AnswerAFKPersonal, "Ви не відповіли вчасно й вибуваєте з гри", "You did not answer in time and leave the game"},

	{AskElimination, "Кого виключаємо?", "Who leaves this round?"},
	{WaitingElimination, "Чоловік обирає, хто вибуває...", "The husband is choosing who leaves..."},
	{ChoiceAccepted, "Вибір прийнято", "Choice accepted"},
	{ChoiceTimedOut, "Час вийшов, вибір зроблено за вас", "Time is up, the choice was made for you"},
	{Eliminated, "Чоловік виключив №%d (%s)", "The husband eliminated #%d (%s)"},
	{EliminationSkipped, "Чоловік нікого не виключив у цьому раунді", "The husband eliminated nobody this round"},
	{EliminationRandom, "Чоловік не встиг обрати, тож вибуває №%d (%s)", "The husband ran out of time, so #%d (%s) leaves"},
	{AllAFK, "Усі учасники вибули, %s залишається сам", "Every member is out, %s stays alone"},
	{Winner, "№%d (%s) дійшла до кінця і стає дружиною %s!", "#%d (%s) made it to the end and marries %s!"},
	{FinalRound, "Фінал! Залишилось двоє", "Final round! Two remain"},

	{FinishedChat, "Гру завершено! Вона тривала %s", "The game is over! It lasted %s"},
	{FinishedHusbandAFK, "Чоловік так і не поставив запитання, гру завершено", "The husband never asked a question, the game is over"},
	{GameOver, "Гру в чаті завершено, дякуємо за участь", "The game in the chat is over, thanks for playing"},
}

var builder = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, e := range texts {
		set(b, language.Ukrainian, e.key, e.uk)
		set(b, language.English, e.key, e.en)
	}
	return b
}()

func set(b *catalog.Builder, tag language.Tag, key Key, text any) {
	var err error
	switch t := text.(type) {
	case string:
		err = b.SetString(tag, string(key), t)
	case catalog.Message:
		err = b.Set(tag, string(key), t)
	default:
		err = fmt.Errorf("unsupported text %T", text)
	}
	if err != nil {
		panic(fmt.Sprintf("i18n: %s/%s: %v", tag, key, err))
	}
}

var matcher = language.NewMatcher(supported)

// Printer renders keys in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// New returns a printer for the closest supported language to lang.
func New(lang string) (*Printer, error) {
	want, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parse language %q: %w", lang, err)
	}
	_, index, _ := matcher.Match(want)
	tag := supported[index]
	return &Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(builder))}, nil
}

func (p *Printer) Language() language.Tag { return p.tag }

func (p *Printer) Sprintf(key Key, args ...any) string {
	return p.p.Sprintf(string(key), args...)
}
