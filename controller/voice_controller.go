package controller

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/twilio/twilio-go/twiml"

	"github/itish2003/voicecare/models"
	"github/itish2003/voicecare/services"
)

const (
	voiceGreeting   = "Hello! How can I help you today? Say something about returns, order status, or anything else."
	voiceListening  = "Go ahead, I'm listening..."
	voiceErrorReply = "Sorry, an error occurred. Please try again."
	voicePath       = "/voice"
)

// VoiceSettings controls the TwiML the webhook returns.
type VoiceSettings struct {
	Voice         string
	GatherTimeout int
}

// VoiceController answers the telephony webhook. Each request is one call
// turn: speak the reply, gather the next utterance, then loop back.
type VoiceController struct {
	assistant services.AssistantService
	settings  VoiceSettings
}

func NewVoiceController(assistant services.AssistantService, settings VoiceSettings) *VoiceController {
	if settings.Voice == "" {
		settings.Voice = "Polly.Joanna-Neural"
	}
	if settings.GatherTimeout <= 0 {
		settings.GatherTimeout = 10
	}
	return &VoiceController{assistant: assistant, settings: settings}
}

// Handle is the Gin handler for POST /voice.
func (c *VoiceController) Handle(ctx *gin.Context) {
	var req models.VoiceWebhookRequest
	if err := ctx.ShouldBind(&req); err != nil {
		log.Printf("VOICE: Could not parse webhook form: %v", err)
	}

	reply := voiceGreeting
	if req.SpeechResult != "" {
		log.Printf("VOICE: Call %s said: '%s'", req.CallSid, req.SpeechResult)
		reply = c.assistant.Reply(ctx.Request.Context(), req.SpeechResult).Response
	}

	body, err := c.render(reply)
	if err != nil {
		log.Printf("VOICE: Failed to render TwiML: %v", err)
		body, err = c.render(voiceErrorReply)
		if err != nil {
			ctx.Status(http.StatusInternalServerError)
			return
		}
	}
	ctx.Data(http.StatusOK, "text/xml", []byte(body))
}

func (c *VoiceController) render(reply string) (string, error) {
	say := &twiml.VoiceSay{
		Message: reply,
		Voice:   c.settings.Voice,
	}
	gather := &twiml.VoiceGather{
		Input:         "speech",
		Action:        voicePath,
		Method:        http.MethodPost,
		SpeechTimeout: "auto",
		Timeout:       strconv.Itoa(c.settings.GatherTimeout),
		Language:      "en-US",
		SpeechModel:   "default",
		InnerElements: []twiml.Element{
			&twiml.VoiceSay{Message: voiceListening, Voice: c.settings.Voice},
		},
	}
	redirect := &twiml.VoiceRedirect{
		Url:    voicePath,
		Method: http.MethodPost,
	}
	return twiml.Voice([]twiml.Element{say, gather, redirect})
}
