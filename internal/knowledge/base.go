// Package knowledge answers patient questions from the clinic's knowledge
// base. Answers come strictly from the curated text; when the text does not
// cover a question the answerer says so instead of guessing, and the campaign
// is handed to a human.
package knowledge

// NoAnswer is the sentinel the QA model must return verbatim when the
// knowledge base does not cover the question.
const NoAnswer = "NO_ANSWER"

// BaseText is the clinic knowledge base the QA model is allowed to draw on.
const BaseText = `### Welcome to Bright Smile Clinic - Your Dental Health Partner

**About Us:**
Bright Smile Clinic is a premier dental care center located in the heart of São Paulo. Our mission is to provide exceptional, personalized dental care in a comfortable and modern environment. Our team of highly skilled and compassionate dental professionals is dedicated to helping you achieve and maintain a healthy, beautiful smile for life. We use state-of-the-art technology to ensure the best possible outcomes for our patients.

---

### Our Services

**1. Dental Implants:**

- **What it is:** A dental implant is a permanent solution for replacing missing teeth. It consists of a titanium post that is surgically placed into the jawbone, acting as an artificial tooth root. A custom-made crown is then attached to the post, perfectly matching your natural teeth.
- **Who it's for:** Ideal for individuals who have lost one or more teeth due to injury, decay, or periodontal disease.
- **Benefits:** Implants look, feel, and function just like natural teeth. They are durable, long-lasting, and help preserve jawbone structure.

**2. Veneers:**

- **What it is:** Veneers are ultra-thin, custom-made shells of tooth-colored porcelain or composite resin that are bonded to the front surface of teeth. They are a cosmetic solution to improve your smile's appearance.
- **Who it's for:** Perfect for patients looking to correct issues like chipped, stained, misaligned, uneven, or abnormally spaced teeth.
- **Benefits:** Veneers provide a dramatic and immediate smile makeover. They are stain-resistant and can completely transform the shape, color, and symmetry of your smile.

**3. Teeth Whitening:**

- **What it is:** A professional cosmetic procedure designed to remove stains and discoloration from your teeth, making them several shades whiter. We offer both in-office whitening for immediate results and custom take-home kits.
- **Who it's for:** Anyone who wants to brighten their smile and remove stains caused by coffee, tea, red wine, smoking, or aging.
- **Benefits:** It's one of the fastest, most effective, and safest ways to enhance your smile's appearance.

**4. Root Canal Treatment:**

- **What it is:** A procedure to save a tooth that is severely infected or decayed. It involves removing the infected or inflamed pulp, cleaning and disinfecting the inner chambers, and then filling and sealing it.
- **Who it's for:** Necessary for patients experiencing a severe toothache, prolonged sensitivity to heat or cold, or a dental abscess caused by infection deep within the tooth.
- **Benefits:** It saves your natural tooth, preventing the need for extraction. It relieves pain and eliminates the infection.

**5. Wisdom Tooth Extraction:**

- **What it is:** The surgical removal of one or more of the third molars, commonly known as wisdom teeth. These are the last teeth to erupt, usually in the late teens or early twenties.
- **Who it's for:** Recommended when wisdom teeth are impacted, erupting at an angle, causing pain, crowding other teeth, or leading to infection due to being difficult to clean.
- **Benefits:** Extraction prevents future pain, infection, and damage to adjacent teeth.

---

### Frequently Asked Questions (FAQs)

- **Q: Do you accept new patients?**
    - A: Yes, we are always happy to welcome new patients to our clinic.
- **Q: What should I do in a dental emergency?**
    - A: Please call our main clinic number immediately. We set aside time for emergency appointments every day.
`
