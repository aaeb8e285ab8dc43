package session

// DefaultAvatar is used when registration supplies none.
const DefaultAvatar = "👤"

// Avatars is the emoji set offered by the registration picker.
var Avatars = []string{"👤", "😊", "😎", "🎨", "💼", "🚀", "🎮", "📚", "🎵", "⚡", "🌟", "🔥"}
