// Package design is the goa description of the HTTP API. The handlers in
// internal/httpapi are mounted by hand; a test there checks that both declare
// the same routes.
package design

import (
	. "goa.design/goa/v3/dsl"
)

var _ = API("askyaguy", func() {
	Title("Ask YaGuy API")
	Description("Paid questions answered by an expert within an SLA window")
	Version("1.0.0")
	Server("api", func() {
		Host("localhost", func() {
			URI("http://localhost:3000")
		})
	})
})

var JWTAuth = JWTSecurity("jwt", func() {
	Description("Bearer token issued by /api/auth/login or /api/auth/register")
	Scope("admin", "Admin access")
})

// Health check
var _ = Service("health", func() {
	Description("Liveness and database reachability")
	Method("check", func() {
		Result(HealthResult)
		HTTP(func() {
			GET("/health")
			Response(StatusOK)
		})
	})
})

var HealthResult = ResultType("HealthResult", func() {
	Attribute("status", String, "healthy or unhealthy", func() {
		Example("healthy")
	})
	Attribute("service", String, "Service name", func() {
		Example("Ask YaGuy API")
	})
	Attribute("database", String, "connected or unreachable")
	Attribute("timestamp", String, "Check time", func() {
		Format(FormatDateTime)
	})
})

// Authentication service
var _ = Service("auth", func() {
	Description("Account registration and token issuance")
	Error("invalid_input")
	Error("unauthorized")
	Error("conflict")

	Method("register", func() {
		Payload(RegisterPayload)
		Result(TokenResult)
		HTTP(func() {
			POST("/api/auth/register")
			Response(StatusCreated)
			Response("invalid_input", StatusBadRequest)
			Response("conflict", StatusConflict)
		})
	})

	Method("login", func() {
		Payload(LoginPayload)
		Result(TokenResult)
		HTTP(func() {
			POST("/api/auth/login")
			Response(StatusOK)
			Response("invalid_input", StatusBadRequest)
			Response("unauthorized", StatusUnauthorized)
		})
	})

	Method("me", func() {
		Description("Profile of the authenticated user")
		Security(JWTAuth)
		Payload(func() {
			Token("token", String, "JWT token")
		})
		Result(UserResult)
		HTTP(func() {
			GET("/api/auth/me")
			Response(StatusOK)
			Response("unauthorized", StatusUnauthorized)
		})
	})
})

var RegisterPayload = Type("RegisterPayload", func() {
	Attribute("email", String, "Email address", func() {
		Format(FormatEmail)
		Example("asker@example.com")
	})
	Attribute("password", String, "Password", func() {
		MinLength(8)
	})
	Attribute("name", String, "Display name")
	Required("email", "password")
})

var LoginPayload = Type("LoginPayload", func() {
	Attribute("email", String, "Email address", func() {
		Example("asker@example.com")
	})
	Attribute("password", String, "Password")
	Required("email", "password")
})

var UserResult = ResultType("UserResult", func() {
	Attribute("id", String, "User ID", func() {
		Format(FormatUUID)
	})
	Attribute("email", String, "Email address")
	Attribute("name", String, "Display name")
	Attribute("role", String, "Role", func() {
		Enum("user", "admin")
	})
	Attribute("created_at", String, "Creation time", func() {
		Format(FormatDateTime)
	})
	Attribute("last_login", String, "Last login time", func() {
		Format(FormatDateTime)
	})
	Required("id", "email", "role")
})

var TokenResult = ResultType("TokenResult", func() {
	Attribute("access_token", String, "JWT access token")
	Attribute("token_type", String, "Token type", func() {
		Example("bearer")
	})
	Attribute("user", UserResult)
	Required("access_token", "token_type", "user")
})

// Questions service
var _ = Service("questions", func() {
	Description("Question lifecycle: submission, payment, staffing and answers")
	Error("invalid_input")
	Error("unauthorized")
	Error("access_denied")
	Error("not_found")
	Error("invalid_status")
	Error("payment_session_error", func() {
		Description("The payment provider could not create a session or refund")
		Temporary()
	})
	Error("session_verification_error", func() {
		Description("The payment provider could not verify the session")
		Temporary()
	})
	Error("payment_not_completed")

	Method("create", func() {
		Description("Submit a question and open a checkout session. Authentication is optional.")
		Payload(CreateQuestionPayload)
		Result(CheckoutResult)
		HTTP(func() {
			POST("/api/questions")
			Response(StatusCreated)
			Response("invalid_input", StatusBadRequest)
			Response("payment_session_error", StatusBadGateway)
		})
	})

	Method("confirm_payment", func() {
		Description("Verify a checkout session with the provider and mark its question received. Idempotent.")
		Payload(func() {
			Attribute("session_id", String, "Checkout session ID")
			Required("session_id")
		})
		Result(PaymentResult)
		HTTP(func() {
			POST("/api/questions/confirm-payment")
			Response(StatusOK)
			Response("invalid_input", StatusBadRequest)
			Response("not_found", StatusNotFound)
			Response("payment_not_completed", StatusPaymentRequired)
			Response("session_verification_error", StatusBadGateway)
		})
	})

	Method("renew_payment_session", func() {
		Description("Open a new checkout session for a question still awaiting payment")
		Payload(func() {
			Attribute("id", String, "Question ID")
			Required("id")
		})
		Result(CheckoutResult)
		HTTP(func() {
			POST("/api/questions/{id}/payment-session")
			Response(StatusOK)
			Response("not_found", StatusNotFound)
			Response("invalid_status", StatusConflict)
			Response("payment_session_error", StatusBadGateway)
		})
	})

	Method("my_questions", func() {
		Security(JWTAuth)
		Payload(func() {
			Token("token", String, "JWT token")
		})
		Result(QuestionList)
		HTTP(func() {
			GET("/api/questions/my-questions")
			Response(StatusOK)
			Response("unauthorized", StatusUnauthorized)
		})
	})

	Method("get", func() {
		Description("Question detail. Admins also receive the action and notification logs.")
		Security(JWTAuth)
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("id", String, "Question ID")
			Required("id")
		})
		Result(QuestionDetail)
		HTTP(func() {
			GET("/api/questions/{id}")
			Response(StatusOK)
			Response("access_denied", StatusForbidden)
			Response("not_found", StatusNotFound)
		})
	})

	Method("add_attachment", func() {
		Security(JWTAuth)
		Payload(AttachmentPayload)
		Result(AttachmentResult)
		HTTP(func() {
			POST("/api/questions/{id}/attachments")
			Response(StatusCreated)
			Response("invalid_input", StatusBadRequest)
			Response("unauthorized", StatusUnauthorized)
			Response("access_denied", StatusForbidden)
			Response("not_found", StatusNotFound)
		})
	})

	Method("list", func() {
		Description("All questions, newest first (Admin only)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("status", String, "Filter by status")
			Attribute("urgency", String, "Filter by urgency")
		})
		Result(QuestionList)
		HTTP(func() {
			GET("/api/questions")
			Param("status")
			Param("urgency")
			Response(StatusOK)
			Response("invalid_input", StatusBadRequest)
			Response("access_denied", StatusForbidden)
		})
	})

	Method("stats", func() {
		Description("Dashboard aggregates (Admin only)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
		})
		Result(StatsResult)
		HTTP(func() {
			GET("/api/questions/admin/stats")
			Response(StatusOK)
			Response("access_denied", StatusForbidden)
		})
	})

	Method("set_status", func() {
		Description("Move a question along the admin edges of the lifecycle. Refunded triggers a provider refund.")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("id", String, "Question ID")
			Attribute("status", String, "Target status", func() {
				Enum("received", "in_progress", "cancelled", "refunded")
			})
			Attribute("note", String, "Admin note")
			Required("id", "status")
		})
		Result(QuestionResult)
		HTTP(func() {
			PATCH("/api/questions/{id}/status")
			Response(StatusOK)
			Response("invalid_input", StatusBadRequest)
			Response("access_denied", StatusForbidden)
			Response("not_found", StatusNotFound)
			Response("invalid_status", StatusConflict)
			Response("payment_session_error", StatusBadGateway)
		})
	})

	Method("publish_answer", func() {
		Description("Store the answer, mark the question answered and email the asker (Admin only)")
		Security(JWTAuth, func() {
			Scope("admin")
		})
		Payload(func() {
			Token("token", String, "JWT token")
			Attribute("id", String, "Question ID")
			Attribute("answer_text", String, "Answer", func() {
				MinLength(1)
			})
			Required("id", "answer_text")
		})
		Result(QuestionResult)
		HTTP(func() {
			POST("/api/questions/{id}/publish-answer")
			Response(StatusOK)
			Response("invalid_input", StatusBadRequest)
			Response("access_denied", StatusForbidden)
			Response("not_found", StatusNotFound)
			Response("invalid_status", StatusConflict)
		})
	})
})

var CreateQuestionPayload = Type("CreateQuestionPayload", func() {
	Token("token", String, "Optional JWT token; links the question to the account")
	Attribute("email", String, "Contact email; defaults to the account email", func() {
		Format(FormatEmail)
	})
	Attribute("title", String, "Question title", func() {
		MaxLength(200)
	})
	Attribute("details", String, "Question details")
	Attribute("urgency", String, "Pricing tier", func() {
		Enum("standard", "urgent")
	})
	Required("title", "details", "urgency")
})

var CheckoutResult = ResultType("CheckoutResult", func() {
	Attribute("question_id", String, "Question ID")
	Attribute("session_id", String, "Checkout session ID")
	Attribute("checkout_url", String, "Hosted checkout page")
	Attribute("status", String, "Question status")
	Attribute("price_cents", Int64, "Price in minor units")
	Attribute("due_date", String, "Answer due date", func() {
		Format(FormatDateTime)
	})
	Required("question_id", "session_id", "checkout_url")
})

var PaymentResult = ResultType("PaymentResult", func() {
	Attribute("question_id", String, "Question ID")
	Attribute("status", String, "Question status")
	Attribute("payment_status", String, "Payment status", func() {
		Enum("pending", "succeeded", "failed")
	})
})

var QuestionResult = ResultType("QuestionResult", func() {
	Attribute("id", String, "Question ID")
	Attribute("email", String, "Contact email")
	Attribute("title", String, "Title")
	Attribute("details", String, "Details")
	Attribute("urgency", String, "Pricing tier")
	Attribute("status", String, "Lifecycle status", func() {
		Enum("pending_payment", "received", "in_progress", "answered", "cancelled", "refunded")
	})
	Attribute("price_cents", Int64, "Price in minor units")
	Attribute("payment_status", String, "Payment status")
	Attribute("due_date", String, "Answer due date", func() {
		Format(FormatDateTime)
	})
	Attribute("created_at", String, "Creation time", func() {
		Format(FormatDateTime)
	})
	Attribute("updated_at", String, "Last change", func() {
		Format(FormatDateTime)
	})
	Attribute("answered_at", String, "Answer time", func() {
		Format(FormatDateTime)
	})
	Attribute("answer_text", String, "Answer")
	Attribute("user_id", String, "Owning account (admin view)")
	Attribute("payment_session_id", String, "Checkout session (admin view)")
	Attribute("refund_id", String, "Provider refund (admin view)")
	Attribute("admin_notes", String, "Admin notes (admin view)")
})

var QuestionList = ResultType("QuestionList", func() {
	Attribute("questions", ArrayOf(QuestionResult))
})

var AttachmentPayload = Type("AttachmentPayload", func() {
	Token("token", String, "JWT token")
	Attribute("id", String, "Question ID")
	Attribute("filename", String, "File name")
	Attribute("file_url", String, "Where the file is stored")
	Attribute("file_size", Int64, "Size in bytes", func() {
		Minimum(0)
	})
	Attribute("mime_type", String, "MIME type")
	Required("id", "filename", "file_url")
})

var AttachmentResult = ResultType("AttachmentResult", func() {
	Attribute("id", String, "Attachment ID")
	Attribute("filename", String, "File name")
	Attribute("file_url", String, "Where the file is stored")
	Attribute("file_size", Int64, "Size in bytes")
	Attribute("mime_type", String, "MIME type")
	Attribute("uploaded_at", String, "Upload time", func() {
		Format(FormatDateTime)
	})
})

var AdminActionResult = ResultType("AdminActionResult", func() {
	Attribute("id", String, "Action ID")
	Attribute("admin_id", String, "Acting admin")
	Attribute("action_type", String, "Action", func() {
		Enum("status_change", "answer_published")
	})
	Attribute("details", Any, "Action details")
	Attribute("created_at", String, "Action time", func() {
		Format(FormatDateTime)
	})
})

var NotificationResult = ResultType("NotificationResult", func() {
	Attribute("id", String, "Notification ID")
	Attribute("user_email", String, "Recipient")
	Attribute("notification_type", String, "Template", func() {
		Enum("confirmation", "answer_delivered", "sla_reminder")
	})
	Attribute("subject", String, "Subject")
	Attribute("status", String, "Delivery outcome", func() {
		Enum("sent", "failed")
	})
	Attribute("provider_message_id", String, "Provider message ID")
	Attribute("error", String, "Failure reason")
	Attribute("sent_at", String, "Attempt time", func() {
		Format(FormatDateTime)
	})
})

var QuestionDetail = ResultType("QuestionDetail", func() {
	Extend(QuestionResult)
	Attribute("attachments", ArrayOf(AttachmentResult))
	Attribute("admin_actions", ArrayOf(AdminActionResult), "Admin view only")
	Attribute("notifications", ArrayOf(NotificationResult), "Admin view only")
})

var StatsResult = ResultType("StatsResult", func() {
	Attribute("total", Int64, "Number of questions")
	Attribute("count_by_status", MapOf(String, Int64), "Questions per status")
	Attribute("total_revenue_cents", Int64, "Sum of paid prices")
	Attribute("average_response_hours", Float64, "Mean time from submission to answer")
})

// Payment provider callbacks
var _ = Service("webhooks", func() {
	Description("Signed callbacks from the payment provider")
	Error("session_verification_error")

	Method("stripe", func() {
		Payload(func() {
			Attribute("signature", String, "Stripe-Signature header")
		})
		Result(func() {
			Attribute("received", Boolean)
			Attribute("handled", Boolean)
		})
		HTTP(func() {
			POST("/api/webhooks/stripe")
			Header("signature:Stripe-Signature")
			SkipRequestBodyEncodeDecode()
			Response(StatusOK)
			Response("session_verification_error", StatusBadGateway)
		})
	})
})
