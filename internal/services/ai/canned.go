package ai

import (
	"context"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/benvon/smart-dashboard/internal/models"
)

// Intn is the randomness a CannedResponder samples with. *rand.Rand satisfies it.
type Intn interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// KeywordReplies pairs a lowercase keyword with the replies it selects.
type KeywordReplies struct {
	Keyword string
	Replies []string
}

// GreetingTokens are matched as whole words.
var GreetingTokens = []string{"hello", "hi", "hey", "hiya", "howdy", "greetings", "yo"}

// GreetingReplies answer any message containing a greeting token.
var GreetingReplies = []string{
	"Hello! How can I help you with your tasks today?",
	"Hi there! Ready to get productive?",
	"Hey! Want a quick look at what's due?",
}

// KeywordTable is scanned in order; the first keyword contained in the message wins.
var KeywordTable = []KeywordReplies{
	{Keyword: "remind", Replies: []string{
		"Add a reminder time to any task and I'll flag it when it's due.",
		"Check the upcoming reminders panel to see what fires next.",
		"Next reminder: 2025-10-20 09:00 AM",
	}},
	{Keyword: "payment", Replies: paymentReplies},
	{Keyword: "bill", Replies: paymentReplies},
	{Keyword: "pay", Replies: paymentReplies},
	{Keyword: "meeting", Replies: []string{
		"Don't forget your meeting at 5 PM today!",
		"Reminder: Team meeting tomorrow at 3 PM.",
		"Prepare notes for the next meeting.",
	}},
	{Keyword: "email", Replies: []string{
		"Don't forget to review your emails.",
		"Check your emails before the end of the day.",
	}},
	{Keyword: "task", Replies: []string{
		"You have 3 upcoming tasks this week.",
		"Your tasks are on track for this week.",
		"It's a good day to plan your tasks.",
		"Add 'Call client' to your to-do list.",
	}},
	{Keyword: "break", Replies: []string{
		"Take a short break to stay fresh!",
		"Schedule your breaks to stay productive.",
	}},
	{Keyword: "thank", Replies: []string{
		"You're welcome! Keep up the productivity! 💪",
		"Anytime. Great job completing your tasks!",
	}},
}

var paymentReplies = []string{
	"Time to check pending payments.",
	"Reminder: Pay your electricity bill on time.",
	"Mark a bill as paid from the payments panel once it's settled.",
}

// DefaultReplies are used when nothing else matches.
var DefaultReplies = []string{
	"Don't forget your meeting at 5 PM today!",
	"You have 3 upcoming tasks this week.",
	"Reminder: Pay your electricity bill on time.",
	"Great job completing your tasks!",
	"Try to finish your pending reports today.",
	"Your next appointment is on 2025-10-19.",
	"Don't forget to review your emails.",
	"Keep up the productivity! 💪",
	"You have a new task to add: 'Prepare presentation'.",
	"Check your calendar for upcoming deadlines.",
	"Have you completed your weekly review?",
	"It's a good day to plan your tasks.",
	"Reminder: Team meeting tomorrow at 3 PM.",
	"Schedule your breaks to stay productive.",
	"Your tasks are on track for this week.",
	"Don't forget to update your progress.",
	"New task suggestion: 'Read AI research papers'.",
	"Stay focused and avoid distractions.",
	"Next reminder: 2025-10-20 09:00 AM",
	"You've completed 8 tasks this week. Awesome!",
	"Remember to send the report to the manager.",
	"Plan your tasks for tomorrow evening.",
	"Add 'Call client' to your to-do list.",
	"Don't forget to backup your files.",
	"Check your emails before the end of the day.",
	"Take a short break to stay fresh!",
	"Update your progress on the dashboard.",
	"Review last week's completed tasks.",
	"Prepare notes for the next meeting.",
	"Time to check pending payments.",
	"Great day to complete your remaining tasks!",
}

// CannedResponder answers offline from fixed reply sets.
type CannedResponder struct {
	rng      Intn
	greeting map[string]struct{}
}

// NewCannedResponder returns a canned responder. A nil rng uses math/rand/v2.
func NewCannedResponder(rng Intn) *CannedResponder {
	if rng == nil {
		rng = globalRand{}
	}
	greeting := make(map[string]struct{}, len(GreetingTokens))
	for _, tok := range GreetingTokens {
		greeting[tok] = struct{}{}
	}
	return &CannedResponder{rng: rng, greeting: greeting}
}

// Respond implements Responder. history is not consulted.
func (c *CannedResponder) Respond(_ context.Context, userText string, _ []models.ChatTurn) Reply {
	return Reply{Text: c.pick(c.Replies(userText)), Strategy: models.ChatStrategyCanned}
}

// Replies returns the reply set the message selects.
func (c *CannedResponder) Replies(userText string) []string {
	text := strings.ToLower(userText)
	for _, word := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if _, ok := c.greeting[word]; ok {
			return GreetingReplies
		}
	}
	for _, entry := range KeywordTable {
		if strings.Contains(text, entry.Keyword) {
			return entry.Replies
		}
	}
	return DefaultReplies
}

func (c *CannedResponder) pick(set []string) string {
	return set[c.rng.IntN(len(set))]
}
