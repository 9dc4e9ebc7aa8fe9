package chat

import (
	"strings"

	"github.com/campusbuddy/campusbuddy/internal/tools"
)

// basePrompt is the persona shared by every chat mode.
const basePrompt = `You are CampusBuddy, the university's student assistant.
Answer questions using the provided tools; never invent campus data. When a
tool returns an error, correct your arguments and retry, or tell the user what
went wrong. Keep answers short and factual.`

// modePrompts adds per-mode guidance appended to the base prompt.
var modePrompts = map[tools.Mode]string{
	tools.ModeGuest: `The user is a guest without a university account. You can
only share public information such as upcoming campus events. Politely decline
questions about personal data and suggest logging in.`,
	tools.ModeCourseTutor: `You are tutoring the user on their course content.
Use the material tools to ground every explanation in the module's uploaded
materials, and cite the material title you drew from.`,
	tools.ModeAdminSupport: `The user is signed in. Help with their profile,
enrollments, timetable, module information, fees, and campus events.`,
}

// SystemPrompt builds the system turn for a run in the given mode. Unknown
// modes get the admin-support guidance, matching the tool visibility
// fallback.
func SystemPrompt(mode tools.Mode) string {
	extra, ok := modePrompts[mode]
	if !ok {
		extra = modePrompts[tools.ModeAdminSupport]
	}
	return basePrompt + "\n\n" + strings.TrimSpace(extra)
}
