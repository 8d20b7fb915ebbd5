// mailbox.go - four-byte mailbox shared between main and audio CPUs at 0x2140-0x2143.

package console

// Mailbox is the shared four-byte latch pair the main CPU and audio CPU use to pass
// bytes across the clock-domain boundary. The main-CPU side (reached by the bus router)
// and the audio-CPU side (reached by the audio-CPU's own bus adaptor) each read what the
// other last wrote.
type Mailbox struct {
	toAudio [4]byte
	toMain  [4]byte
}

func NewMailbox() *Mailbox { return &Mailbox{} }

// ReadFromAudio/WriteToAudio implement bus.Mailbox, the main-CPU-facing side.
func (m *Mailbox) ReadFromAudio(offset uint16) byte   { return m.toMain[offset&3] }
func (m *Mailbox) WriteToAudio(offset uint16, v byte) { m.toAudio[offset&3] = v }

// ReadFromMain/WriteToMain are the audio-CPU-facing side, called by the audio-CPU's bus
// adaptor when it decodes an access to its mirror of the same four ports.
func (m *Mailbox) ReadFromMain(offset uint16) byte   { return m.toAudio[offset&3] }
func (m *Mailbox) WriteToMain(offset uint16, v byte) { m.toMain[offset&3] = v }

func (m *Mailbox) Reset() {
	m.toAudio = [4]byte{}
	m.toMain = [4]byte{}
}

// MailboxState is the serializable snapshot of a Mailbox, for internal/savestate.
type MailboxState struct {
	ToAudio [4]byte
	ToMain  [4]byte
}

func (m *Mailbox) Snapshot() MailboxState { return MailboxState{m.toAudio, m.toMain} }

func (m *Mailbox) Restore(s MailboxState) {
	m.toAudio, m.toMain = s.ToAudio, s.ToMain
}
