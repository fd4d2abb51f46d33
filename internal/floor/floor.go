package floor

// Decision represents the action the floor manager wants to take.
type Decision struct {
	ShouldStop      bool
	StopUtteranceID string
	Reason          string // "stopped", "superseded", "voice_disabled", "cleared"
}

// Manager tracks which synthesized utterance owns the speaker. It is not
// safe for concurrent use; the assistant loop owns it.
type Manager struct {
	speaking          bool
	activeUtteranceID string
}

func New() *Manager { return &Manager{} }

func (m *Manager) Speaking() bool { return m.speaking }

func (m *Manager) Active() string { return m.activeUtteranceID }

// OnSpeakStarted claims the speaker. A still playing utterance is superseded.
func (m *Manager) OnSpeakStarted(utteranceID string) Decision {
	var d Decision
	if m.speaking && m.activeUtteranceID != utteranceID {
		d = Decision{ShouldStop: true, StopUtteranceID: m.activeUtteranceID, Reason: "superseded"}
	}
	m.speaking = true
	m.activeUtteranceID = utteranceID
	return d
}

// OnSpeakStopped releases the speaker if utteranceID still owns it. A late
// completion of a superseded utterance is ignored.
func (m *Manager) OnSpeakStopped(utteranceID string) Decision {
	if utteranceID == m.activeUtteranceID {
		m.speaking = false
		m.activeUtteranceID = ""
	}
	return Decision{}
}

// OnStop handles an explicit stop from the user.
func (m *Manager) OnStop() Decision { return m.release("stopped") }

// OnVoiceDisabled handles voice output being switched off.
func (m *Manager) OnVoiceDisabled() Decision { return m.release("voice_disabled") }

// OnClear handles the conversation being reset.
func (m *Manager) OnClear() Decision { return m.release("cleared") }

func (m *Manager) release(reason string) Decision {
	if !m.speaking {
		return Decision{}
	}
	d := Decision{ShouldStop: true, StopUtteranceID: m.activeUtteranceID, Reason: reason}
	m.speaking = false
	m.activeUtteranceID = ""
	return d
}
