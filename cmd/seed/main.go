package main

import (
	"log"
	"os"

	"ai-helpdesk-be/internal/constant"
	"ai-helpdesk-be/internal/model"
	"ai-helpdesk-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	// Seeded articles need an owner for uploaded_by. Defaults to a fixed
	// system id so reruns stay idempotent.
	uploaderStr := os.Getenv("SEED_USER_ID")
	if uploaderStr == "" {
		uploaderStr = "00000000-0000-0000-0000-000000000001"
	}
	uploader, err := uuid.Parse(uploaderStr)
	if err != nil {
		log.Fatalf("Error: SEED_USER_ID is not a valid UUID: %v", err)
	}

	log.Println("Seeding Knowledge Base Articles...")

	documents := []model.Document{
		{
			Title:    "How to reset your password",
			Language: "en",
			Content: "If you have forgotten your password, open the login page and click " +
				"\"Forgot password\". Enter the email address registered to your account and " +
				"press Send. Within a few minutes you will receive an email with a reset link. " +
				"The link is valid for 30 minutes. If the email does not arrive, check your " +
				"spam folder before contacting support. After resetting, you will be signed " +
				"out of all active sessions and must sign in again on every device.",
		},
		{
			Title:    "إعادة تعيين كلمة المرور",
			Language: "ar",
			Content: "إذا نسيت كلمة المرور الخاصة بك، افتح صفحة تسجيل الدخول واضغط على " +
				"\"نسيت كلمة المرور\". أدخل البريد الإلكتروني المسجل في حسابك ثم اضغط إرسال. " +
				"ستصلك رسالة تحتوي على رابط إعادة التعيين خلال دقائق، والرابط صالح لمدة ثلاثين " +
				"دقيقة فقط. إذا لم تصلك الرسالة تحقق من مجلد الرسائل غير المرغوب فيها قبل " +
				"التواصل مع الدعم الفني. بعد إعادة التعيين سيتم تسجيل خروجك من جميع الجلسات " +
				"النشطة وعليك تسجيل الدخول من جديد على كل جهاز.",
		},
		{
			Title:    "Refund policy and how to request a refund",
			Language: "en",
			Content: "Purchases can be refunded within 14 days of the transaction date. To " +
				"request a refund, open Billing, locate the charge, and choose \"Request " +
				"refund\". Refunds are returned to the original payment method within 5 to 10 " +
				"business days. Annual subscriptions are refunded pro rata for the unused " +
				"months. Transactions older than 14 days require approval from the billing " +
				"team and are handled case by case.",
		},
		{
			Title:    "سياسة الاسترجاع وطريقة طلب استرداد المبلغ",
			Language: "ar",
			Content: "يمكن استرداد قيمة المشتريات خلال أربعة عشر يوماً من تاريخ العملية. لطلب " +
				"الاسترداد افتح صفحة الفواتير، حدد العملية المطلوبة، ثم اختر \"طلب استرداد\". " +
				"يُعاد المبلغ إلى وسيلة الدفع الأصلية خلال خمسة إلى عشرة أيام عمل. الاشتراكات " +
				"السنوية تُسترد بشكل نسبي عن الأشهر غير المستخدمة. العمليات الأقدم من أربعة " +
				"عشر يوماً تحتاج موافقة فريق الفواتير وتُعالج كل حالة على حدة.",
		},
		{
			Title:    "Troubleshooting connection problems",
			Language: "en",
			Content: "When the application cannot reach the server, first verify that your " +
				"device is online by opening any website. If the network is up, restart the " +
				"application. Corporate networks sometimes block our ports; ask your IT " +
				"department to allow outbound traffic on ports 443 and 8443. If the problem " +
				"persists, collect the diagnostic log from Settings, About, Export logs and " +
				"attach it to your support ticket so the team can trace the failing hop.",
		},
		{
			Title:    "حل مشاكل الاتصال بالخادم",
			Language: "ar",
			Content: "عندما يتعذر على التطبيق الوصول إلى الخادم، تأكد أولاً من اتصال جهازك " +
				"بالإنترنت عبر فتح أي موقع. إذا كانت الشبكة تعمل أعد تشغيل التطبيق. بعض شبكات " +
				"الشركات تحجب المنافذ التي نستخدمها، فاطلب من قسم تقنية المعلومات السماح " +
				"بالاتصال الصادر عبر المنفذين 443 و8443. إذا استمرت المشكلة، صدّر سجل التشخيص " +
				"من الإعدادات ثم أرفقه بتذكرة الدعم ليتمكن الفريق من تتبع مكان الخلل.",
		},
		{
			Title:    "Managing your subscription plan",
			Language: "en",
			Content: "Your current plan is shown under Settings, Subscription. Upgrades take " +
				"effect immediately and the price difference is charged right away. " +
				"Downgrades take effect at the end of the current billing cycle so you keep " +
				"the features you paid for. Cancelling stops renewal but leaves the account " +
				"active until the cycle ends. Invoices for every charge are available as PDF " +
				"downloads from the billing history page.",
		},
		{
			Title:    "إدارة خطة الاشتراك",
			Language: "ar",
			Content: "تظهر خطتك الحالية في الإعدادات ثم الاشتراك. الترقية تسري فوراً ويُحتسب " +
				"فرق السعر مباشرة، أما التخفيض فيسري مع نهاية دورة الفوترة الحالية حتى تحتفظ " +
				"بالمزايا التي دفعت مقابلها. إلغاء الاشتراك يوقف التجديد التلقائي مع بقاء " +
				"الحساب فعالاً حتى نهاية الدورة. يمكن تنزيل فاتورة كل عملية بصيغة PDF من صفحة " +
				"سجل الفواتير.",
		},
	}

	for _, d := range documents {
		// Check if an article with this title already exists
		var existing model.Document
		if err := db.Where("title = ?", d.Title).First(&existing).Error; err == nil {
			log.Printf("Article '%s' already exists, skipping...", d.Title)
			continue
		}

		d.Status = constant.DocumentStatusPending
		d.UploadedBy = uploader

		if err := db.Create(&d).Error; err != nil {
			log.Printf("Error creating article '%s': %v", d.Title, err)
		} else {
			log.Printf("Created article: %s [%s]", d.Title, d.Language)
		}
	}

	log.Println("Article seeding completed!")
	log.Println("Seeded articles are PENDING; the server requeues them for ingestion on startup.")
}
