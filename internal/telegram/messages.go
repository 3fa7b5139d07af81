package telegram

const (
	msgWelcome        = "🤖 Welcome to the Telegram Bot! Type /help to see available commands."
	msgUnknownCommand = "🤔 Unknown command. Type /help to see available commands."

	msgHelp = `🤖 Bot Commands:

🔐 Authentication:
/login [phone] - Start login process (e.g., /login +919876543210)
/verify [code] - Verify login with Telegram code
/password [password] - Send your two-step verification password
/resend - Request a new code
/cancel - Cancel the login in progress
/logout - Log out from your account

👥 Groups:
/mygroups - List all groups you've joined

✉️ Messaging:
/setmessage [text] - Set message to broadcast
/preview - Preview your message

🆘 Help:
/help - Show this help message
/status - Show your current status`

	msgLoginUsage = "📛 Please provide your phone number in international format.\n" +
		"Example: `/login +919876543210`"
	msgInvalidPhone = "❌ Invalid phone format. Must be +CountryCodeNumber\n" +
		"Example: `/login +919876543210`"
	msgCodeSent = "📲 Verification code sent to %s via %s.\n\n" +
		"1. Check your Telegram app notifications\n" +
		"2. Or wait for SMS\n\n" +
		"Enter the code with: `/verify 12345`\n\n" +
		"⚠️ Didn't receive it? Wait 2 minutes and try /resend"
	msgCodeResent    = "📲 A new code was sent via %s.\nEnter it with: `/verify 12345`"
	msgFloodWait     = "⏳ Too many attempts. Please wait %d seconds before trying again."
	msgNumberBlocked = "🚫 This number has been temporarily blocked for too many attempts. " +
		"Please try again tomorrow."
	msgInvalidNumber = "❌ Invalid phone number format. Please check and try again."
	msgLoginFailed   = "❌ Failed to initiate login. Possible reasons:\n" +
		"1. Invalid phone number\n" +
		"2. Server issues\n" +
		"3. Too many attempts\n\n" +
		"Please try again later."

	msgVerifyUsage       = "📛 Please provide the code you received.\nExample: `/verify 12345`"
	msgInvalidCodeFormat = "❌ The code must contain digits only.\nExample: `/verify 12345`"
	msgVerifyFailed      = "❌ Verification failed because of a server issue. Please start over with /login"
	msgNoActiveSession   = "❌ No login in progress. Start with `/login +919876543210`"
	msgWrongCode         = "❌ Invalid code. Please try again. Attempts left: %d"
	msgCodeExpired       = "⌛ That code has expired. Use /resend to get a new one. Attempts left: %d"
	msgWrongPassword     = "❌ Wrong password. Please try again. Attempts left: %d"
	msgAttemptsExceeded  = "🚫 Too many failed attempts. Please start over with /login"
	msgResendCooldown    = "⏳ Please wait %d seconds before requesting a new code."
	msgPasswordRequired  = "🔐 Your account has two-step verification enabled.\n" +
		"Send your password with: `/password yourpassword`"
	msgPasswordUsage   = "📛 Please provide your two-step verification password.\nExample: `/password yourpassword`"
	msgLoginSuccess    = "✅ Login successful! Your session has been saved. Type /help to see what you can do next."
	msgSessionNotSaved = "❌ Login succeeded but your session could not be saved. Please try /login again later."

	msgCancelled       = "🛑 Login cancelled."
	msgNothingToCancel = "ℹ️ There is no login in progress."
	msgLoggedOut       = "👋 You have been logged out."
	msgNotLoggedIn     = "❌ You are not logged in. Use /login to start."
	msgStoreFailed     = "❌ Something went wrong while reading your data. Please try again later."

	msgSetMessageUsage = "📛 Please provide the message text.\nExample: `/setmessage Hello everyone!`"
	msgMessageSaved    = "✅ Message saved. Use /preview to see it."
	msgNoMessage       = "ℹ️ No message set. Use /setmessage [text] to set one."
	msgNoGroups        = "ℹ️ You haven't joined any groups yet."
)
