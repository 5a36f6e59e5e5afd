package usecase

// Fixed reply texts of the dialogue flows.
const (
	replyOperatorWelcome = "Welcome, teacher! Use /help to see available commands. 📚"

	replyOperatorHelp = `
Commands:
/students - Show the list of all students
/send_all - Send a message to all students
/send - Send a message to a specific student
/send_group - Send a message to a specific group
        `

	replyParticipantHelp = `
Commands:
/check - Check your own details
/edit - Edit your own information
/submit - Submit your assignment (text or photo only)
        `

	replyRegisterPrompt    = "Please enter your full name, group name, and time (e.g., John Doe Intensive IELTS 18:00):"
	replyInvalidDetails    = "Please enter valid details: full name and group."
	replyRegisterFirst     = "Please register with the /start command and provide your details."
	replyNotAuthorized     = "You are not authorized to use this command."
	replyNoStudents        = "No students registered yet."
	replyEditPrompt        = "Please enter the new details (e.g., Jane Doe Intensive IELTS 19:00):"
	replySubmitPrompt      = "Please send your assignment (text or photo) now."
	replySubmitTextDone    = "Your assignment text has been sent to the teacher."
	replySubmitPhotoDone   = "Your assignment photo has been sent to the teacher."
	replyNotInSubmit       = "You are not in a submission session. Please use /submit to start submitting."
	replyOperatorTextOnly  = "Only text messages can be sent to students."
	replySendAllPrompt     = "Please enter the message to send to all students:"
	replySendAllDone       = "Message sent to all students."
	replySendSinglePrompt  = "Please enter the student ID to send a message to:"
	replySendSingleDone    = "Message sent to the student."
	replyInvalidStudentID  = "Invalid student ID."
	replySendGroupPrompt   = "Please enter the group name and time (e.g., Intensive IELTS 18:00):"
	replyGroupNotFound     = "Group not found. Please try again."
	replyInvalidGroup      = "Invalid group format. Please try again."
	replyGenericSaveFailed = "Something went wrong while saving your details. Please try again later."
)
