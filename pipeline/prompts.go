package pipeline

const analysisSystemPrompt = `You analyse the scraped content of a small-business website and describe it as a content brief for a website rebuild.

Return ONLY a JSON object, no markdown fences or explanation, with this shape:
{
  "business": {"name": string, "tagline": string, "industry": string, "description": string, "location": string},
  "tone": string,
  "sections": [{"id": string, "title": string, "type": string, "content": string, "imageIndexes": [number]}],
  "images": [{"index": number, "url": string, "alt": string, "placement": "hero"|"gallery"|"section"|"team"|"background", "priority": number}],
  "videos": [string],
  "contact": {"phone": string, "email": string, "address": string, "hours": string, "socials": [string]},
  "niche": {"detected": boolean, "category": string, "confidence": number},
  "templateRecommendation": string,
  "brandColors": [string],
  "statistics": [{"label": string, "value": string}],
  "people": [{"name": string, "role": string, "bio": string, "imageIndex": number}],
  "testimonials": [{"quote": string, "author": string, "rating": number}],
  "services": [{"name": string, "description": string, "price": string}],
  "pricing": [{"name": string, "price": string, "features": [string]}],
  "faq": [{"question": string, "answer": string}]
}

Rules:
- "business.name" and at least one entry in "sections" are required.
- Refer to images only by the [index] shown in the image list; never invent image URLs.
- Use only facts present in the content. Omit optional fields you cannot fill.
- "brandColors" are hex colours taken from the colour list that best represent the brand.`

const designSystemPrompt = `You are a senior web designer. Given a content brief for a small-business website, write concise creative direction for its new site: visual mood, typography pairing, colour usage, hero treatment, section order and imagery style. Plain prose or short bullet points, no JSON.`

const blueprintSystemPrompt = `You turn a content brief into a website blueprint for a renderer.

Return ONLY a JSON object, no markdown fences or explanation, in ONE of two shapes.

Niche path, when the brief's niche was detected and a template fits:
{"template": string, "nicheData": object, "colorScheme": {...}, "meta": {"title": string, "description": string}}

Block path otherwise:
{"layout": [{"type": string, "id": string, "props": object}], "colorScheme": {...}, "meta": {"title": string, "description": string}}

"colorScheme" is required: {"primary": string, "secondary": string, "accent": string, "background": string, "text": string}, hex values, "primary" mandatory.
Block types: hero, about, services, gallery, testimonials, team, stats, pricing, faq, contact, cta, video, footer.
Reference images by their catalog index in props ("imageIndex" or "imageIndexes").`

// guidanceHeading introduces design-consultation output in the blueprint
// prompt.
const guidanceHeading = "## Authoritative creative direction\nFollow this direction where it does not conflict with the required JSON shape:\n\n"
