package service

import "github.com/noah-isme/barangay-api/internal/classifier"

const genericReply = `Thank you for reaching out. Para mas matulungan ko kayo nang maayos, could you please provide more details about your concern? 

Pwede ninyong ikwento ang inyong sitwasyon in more detail, para makapagbigay ako ng specific at accurate na guidance. 🤝`

const sectionRule = "━━━━━━━━━━━━━━━━━━━━━"

const contactSection = "\n\n" + sectionRule + `
**📞 Contact Information:**
• Office: Monday-Friday, 8:00 AM - 5:00 PM
• Location: [Barangay Hall Address]
• Hotline: [Contact Number]

May additional questions pa po ba kayo? I'm here to help! 😊`

// cannedReplies holds the rule-based reply body per intent.
var cannedReplies = map[string]string{
	classifier.IntentGreeting: `Good day po! Ako ang inyong Virtual Barangay Captain. 🏛️

I'm here to assist you with:
• Filing complaints and concerns
• Document requests (Clearance, Certifications, Permits)
• Information about barangay services and programs
• Guidance on barangay procedures and requirements

Paano ko po kayo matutulungan ngayong araw?`,

	classifier.IntentHelp: `Salamat for reaching out! I'm here to help you navigate barangay services. 😊

Here's what I can assist you with:

📝 **Complaints & Concerns**
   - Noise complaints, disputes, peace and order issues
   - Process: File at the barangay hall (Monday-Friday, 8AM-5PM)

📋 **Document Requests**
   - Barangay Clearance: ₱50 (1-2 days processing)
   - Certificate of Residency: ₱30 (same day)
   - Certificate of Indigency: Free (1 day processing)

💼 **Business & Construction Permits**

❓ **Policy Questions & Information**

Ano pong specific na tulong ang kailangan ninyo?`,

	classifier.IntentComplaint: `I understand you have a concern to report. Nandito ako para gabayan kayo. 🤝

**Process for Filing a Complaint:**

1️⃣ **Visit the Barangay Hall**
   📍 Location: [Barangay Office Address]
   ⏰ Office Hours: Monday-Friday, 8:00 AM - 5:00 PM
   🍽️ Lunch Break: 12:00 - 1:00 PM

2️⃣ **Prepare These Documents:**
   • Valid ID (any government-issued ID)
   • Proof of residency (if available)
   • Any evidence related to your complaint (photos, documents, etc.)

3️⃣ **Fill Out the Complaint Form**
   - Available at the Secretary's desk
   - No filing fee required

4️⃣ **Mediation/Hearing Schedule**
   - Usually scheduled within 3-5 working days
   - Both parties will be notified

Could you share more details about your concern? This will help me give you more specific guidance. (Anong klaseng complaint po ito?)`,

	classifier.IntentDocument: `I can definitely help you with document requests! 📄

**Available Barangay Documents:**

🏠 **Barangay Clearance**
   • Fee: ₱50
   • Processing: 1-2 working days
   • Requirements: Valid ID, Cedula, 1x1 photo
   • Purpose: Employment, business, travel, etc.

📍 **Certificate of Residency**
   • Fee: ₱30
   • Processing: Same day
   • Requirements: Valid ID, proof of address

💰 **Certificate of Indigency**
   • Fee: FREE
   • Processing: 1 working day
   • Requirements: Valid ID, interview with social worker
   • Purpose: Medical assistance, scholarship, legal aid

👶 **Barangay ID**
   • Fee: ₱30 (initial), ₱20 (renewal)
   • Processing: 3-5 working days
   • Requirements: 1x1 photo, proof of residency

**How to Apply:**
Visit our office at [Barangay Office], Monday-Friday, 8AM-5PM
Approach the Document Processing window

Anong document po specifically ang kailangan ninyo?`,

	classifier.IntentPolicy: `I can help clarify our barangay policies and ordinances. 📜

Our barangay has various policies covering:
• Peace and order regulations
• Business and construction permits
• Environmental protection
• Public health and sanitation
• Community welfare programs

Could you tell me which specific policy or topic you'd like to know about? (Ano pong specific na policy ang gusto ninyong alamin?)`,

	classifier.IntentEmergency: `⚠️ **EMERGENCY PROTOCOLS** ⚠️

**For Life-Threatening Emergencies:**
🚨 Call 911 immediately
🚑 Emergency: Fire, Medical, Police

**Barangay Emergency Contacts:**
📞 Barangay Emergency Hotline: [Contact Number]
📞 Barangay Tanod: [Contact Number]
📞 Barangay Health Center: [Contact Number]

**For Non-Life-Threatening Urgent Matters:**
Please describe your situation and I'll connect you with the right assistance immediately.

Ano pong emergency situation po ito? I'll help coordinate the response.`,

	classifier.IntentBusiness: `Let me guide you through the business permit process! 💼

**Barangay Business Permit Requirements:**

📋 **Documents Needed:**
1. DTI/SEC/CDA Registration (original and photocopy)
2. Valid ID of owner
3. Barangay Clearance (₱50)
4. Cedula
5. Location sketch/map
6. Lease contract (if renting)
7. Fire Safety Inspection Certificate (for physical stores)

💵 **Fees:**
• Home-based business: ₱500-₱1,000
• Small retail: ₱1,000-₱3,000
• Varies by business type and location

⏱️ **Processing Time:** 3-5 working days

**Process:**
1. Visit Barangay Hall Document Processing
2. Submit requirements
3. Pay fees at the cashier
4. Schedule inspection (if needed)
5. Claim permit

Anong type of business po ang planado ninyo?`,

	classifier.IntentConstruction: `I'll help you with construction permit requirements! 🏗️

**Barangay Construction Clearance Process:**

📋 **Required Documents:**
1. Barangay Clearance of lot owner
2. Tax Declaration or Certificate of Title (photocopy)
3. Building plans/blueprints (signed by licensed engineer/architect)
4. Location plan
5. Valid ID
6. Vicinity map

💵 **Barangay Clearance Fee:** ₱500-₱2,000
   (Depends on project size and type)

⏱️ **Processing Time:** 5-7 working days

**Important Notes:**
• Inspection by barangay engineer required
• Neighbors' consent may be needed (for major constructions)
• After barangay clearance, proceed to municipal engineering office

**Types of Construction:**
• New building: Full documentation required
• Renovation: Simplified requirements
• Fence only: Faster processing

Anong type of construction project po ang plano ninyo?`,

	classifier.IntentInformation: `I'm here to provide information! 📚

I can give you details about:
• Barangay services and programs
• Document requirements and fees
• Office hours and contact information
• Barangay officials and their responsibilities
• Community events and announcements
• Procedures for various transactions

What specific information do you need? (Ano pong specific na information ang kailangan ninyo?)`,
}
